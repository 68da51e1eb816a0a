package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Copflow/internal/domain"
	"github.com/shaiso/Copflow/internal/orchestrator"
)

const defaultTickInterval = time.Second

// Submitter — точка подачи задач (Orchestrator).
type Submitter interface {
	Submit(req orchestrator.Request) (uuid.UUID, error)
}

// Scheduler тикает по расписанию релизов и подаёт задачи выкупа.
type Scheduler struct {
	submitter    Submitter
	tickInterval time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	releases map[uuid.UUID]*domain.Release

	// Lifecycle
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Scheduler.
type Config struct {
	// Submitter — куда подавать задачи.
	Submitter Submitter

	// TickInterval — шаг планировщика (default: 1s).
	TickInterval time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт Scheduler.
func New(cfg Config) *Scheduler {
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		submitter:    cfg.Submitter,
		tickInterval: tickInterval,
		logger:       logger,
		releases:     make(map[uuid.UUID]*domain.Release),
	}
}

// Add регистрирует релиз и вычисляет его первое время запуска.
func (s *Scheduler) Add(rel *domain.Release) error {
	if rel.Platform == "" || rel.Product == "" {
		return fmt.Errorf("release platform and product are required")
	}
	if rel.IsCron() {
		if err := ValidateCronExpr(rel.CronExpr); err != nil {
			return err
		}
	}
	if rel.NextDueAt.IsZero() {
		next, err := CalculateNextDue(rel, time.Now())
		if err != nil {
			return err
		}
		rel.NextDueAt = next
	}

	s.mu.Lock()
	s.releases[rel.ID] = rel
	s.mu.Unlock()

	s.logger.Info("release scheduled",
		"release_id", rel.ID,
		"platform", rel.Platform,
		"product", rel.Product,
		"next_due_at", rel.NextDueAt,
	)
	return nil
}

// Remove снимает релиз с расписания.
func (s *Scheduler) Remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.releases, id)
	s.mu.Unlock()
}

// Releases возвращает снимок расписания.
func (s *Scheduler) Releases() []domain.Release {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Release, 0, len(s.releases))
	for _, rel := range s.releases {
		out = append(out, *rel)
	}
	return out
}

// Start запускает цикл тиков.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.Tick(runCtx)
			}
		}
	}()

	s.logger.Info("scheduler started", "tick_interval", s.tickInterval)
	return nil
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Tick обрабатывает все due-релизы один раз.
//
// Ошибки одного релиза не блокируют остальные. Backpressure
// оставляет релиз due: он будет повторён следующим тиком.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	var due []*domain.Release
	for _, rel := range s.releases {
		if rel.Enabled && !rel.NextDueAt.After(now) {
			due = append(due, rel)
		}
	}
	s.mu.Unlock()

	for _, rel := range due {
		if ctx.Err() != nil {
			return
		}
		s.fire(rel, now)
	}
}

// fire подаёт одну задачу релиза и пересчитывает next_due_at.
func (s *Scheduler) fire(rel *domain.Release, now time.Time) {
	taskID, err := s.submitter.Submit(orchestrator.Request{
		Platform: rel.Platform,
		Product:  rel.Product,
		Size:     rel.Size,
	})
	if err != nil {
		if errors.Is(err, orchestrator.ErrBackpressure) {
			// Релиз остаётся due, повтор следующим тиком.
			s.logger.Warn("release submit backpressure, will retry",
				"release_id", rel.ID,
				"platform", rel.Platform,
			)
			return
		}
		s.logger.Error("release submit failed",
			"release_id", rel.ID,
			"platform", rel.Platform,
			"error", err,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		rel.Runs++
		t := now
		rel.LastRunAt = &t
		s.logger.Info("release fired",
			"release_id", rel.ID,
			"task_id", taskID,
			"runs", rel.Runs,
		)
	}

	if rel.Exhausted() {
		rel.Enabled = false
		s.logger.Info("release exhausted", "release_id", rel.ID, "runs", rel.Runs)
		return
	}

	next, nextErr := CalculateNextDue(rel, now)
	if nextErr != nil {
		rel.Enabled = false
		s.logger.Error("release disabled: next due calculation failed",
			"release_id", rel.ID,
			"error", nextErr,
		)
		return
	}
	rel.NextDueAt = next
}
