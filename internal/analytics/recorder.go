package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Copflow/internal/domain"
)

// EventStore — долговременное хранилище MetricEvent'ов.
type EventStore interface {
	Insert(ctx context.Context, ev *domain.MetricEvent) error
	ListSince(ctx context.Context, platform string, since time.Time) ([]domain.MetricEvent, error)
}

// Recorder принимает события append-only и обновляет метрики.
//
// Store опционален: без него события держатся в памяти, что годится
// для тестов и эфемерных запусков. Ошибка записи в store не роняет
// запись события: метрики уже обновлены, ошибка логируется.
type Recorder struct {
	store   EventStore
	metrics *Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	buffer []domain.MetricEvent
}

// Config — конфигурация Recorder.
type Config struct {
	// Store — долговременное хранилище. Опционален.
	Store EventStore

	// Metrics — Prometheus-метрики. Nil отключает метрики.
	Metrics *Metrics

	// Logger
	Logger *slog.Logger
}

// NewRecorder создаёт Recorder.
func NewRecorder(cfg Config) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:   cfg.Store,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Record принимает одно событие. Потокобезопасен.
func (r *Recorder) Record(ctx context.Context, ev *domain.MetricEvent) {
	if ev == nil {
		return
	}

	r.observe(ev)

	if r.store != nil {
		if err := r.store.Insert(ctx, ev); err != nil {
			r.logger.Warn("event store insert failed",
				"event_id", ev.ID,
				"task_id", ev.TaskID,
				"error", err,
			)
		}
		return
	}

	r.mu.Lock()
	r.buffer = append(r.buffer, *ev)
	r.mu.Unlock()
}

// observe обновляет Prometheus-метрики по событию.
func (r *Recorder) observe(ev *domain.MetricEvent) {
	if r.metrics == nil {
		return
	}

	switch ev.Type {
	case domain.EventTypeTask:
		if !ev.Terminal {
			return
		}
		result := detailString(ev.Detail, "result")
		r.metrics.tasksTotal.WithLabelValues(ev.Platform, result).Inc()
		if ms, ok := detailFloat(ev.Detail, "duration_ms"); ok {
			r.metrics.taskDuration.WithLabelValues(ev.Platform).Observe(ms / 1000)
		}

	case domain.EventTypeStep:
		outcome := detailString(ev.Detail, "outcome")
		r.metrics.stepsTotal.WithLabelValues(ev.Name, outcome).Inc()

	case domain.EventTypeCaptcha:
		state := detailString(ev.Detail, "state")
		r.metrics.captchaAttempts.WithLabelValues(state).Inc()
		if cost, ok := detailFloat(ev.Detail, "cost"); ok && cost > 0 {
			r.metrics.captchaCost.Add(cost)
		}
	}
}

// events возвращает события платформы за окно, из store или из памяти.
func (r *Recorder) events(ctx context.Context, platform string, since time.Time) ([]domain.MetricEvent, error) {
	if r.store != nil {
		return r.store.ListSince(ctx, platform, since)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MetricEvent
	for _, ev := range r.buffer {
		if ev.Platform != platform || ev.RecordedAt.Before(since) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// detailString извлекает строку из Detail.
func detailString(detail map[string]any, key string) string {
	if v, ok := detail[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// detailFloat извлекает число из Detail. После JSONB-roundtrip
// целые приходят как float64, поэтому принимаются все три типа.
func detailFloat(detail map[string]any, key string) (float64, bool) {
	switch n := detail[key].(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
