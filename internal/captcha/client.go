package captcha

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Copflow/internal/domain"
)

// Mode — режим решения CAPTCHA.
type Mode string

const (
	// ModeAuto — автоматическое решение через внешний сервис.
	ModeAuto Mode = "auto"

	// ModeManual — ожидание сигнала оператора.
	ModeManual Mode = "manual"
)

// Default configuration values.
const (
	defaultPollInterval = 5 * time.Second
	defaultMaxWait      = 120 * time.Second
)

// Client решает CAPTCHA-challenges в одном из двух режимов.
type Client struct {
	mode         Mode
	solver       Solver
	gate         *OperatorGate
	pollInterval time.Duration
	maxWait      time.Duration
	defaultCost  float64
	logger       *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// Mode — "auto" или "manual" (default: auto).
	Mode Mode

	// Solver — внешний сервис (обязателен для auto).
	Solver Solver

	// Gate — точка встречи с оператором (обязательна для manual).
	Gate *OperatorGate

	// PollInterval — интервал опроса сервиса (default: 5s).
	PollInterval time.Duration

	// MaxWait — максимальное ожидание решения (default: 120s).
	MaxWait time.Duration

	// DefaultCost — стоимость решения, если сервис её не вернул.
	DefaultCost float64

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Client.
func New(cfg Config) *Client {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	gate := cfg.Gate
	if gate == nil {
		gate = NewOperatorGate()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		mode:         mode,
		solver:       cfg.Solver,
		gate:         gate,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		defaultCost:  cfg.DefaultCost,
		logger:       logger,
	}
}

// Gate возвращает OperatorGate клиента (для API операторских сигналов).
func (c *Client) Gate() *OperatorGate {
	return c.gate
}

// Mode возвращает активный режим.
func (c *Client) Mode() Mode {
	return c.mode
}

// Solve доводит challenge до терминального состояния.
//
// Возвращает nil при SOLVED; ErrChallengeTimedOut при TIMED_OUT;
// ErrChallengeFailed при FAILED/CANCELLED; ошибку контекста при
// отмене задачи. Challenge после Solve не переиспользуется.
func (c *Client) Solve(ctx context.Context, ch *domain.CaptchaChallenge) error {
	switch c.mode {
	case ModeManual:
		return c.solveManual(ctx, ch)
	default:
		return c.solveAuto(ctx, ch)
	}
}

// solveAuto — отправка сервису и опрос до решения или дедлайна.
func (c *Client) solveAuto(ctx context.Context, ch *domain.CaptchaChallenge) error {
	if c.solver == nil {
		ch.MarkFailed("no solver configured")
		return fmt.Errorf("%w: no solver configured", ErrChallengeFailed)
	}

	remoteID, err := c.solver.Submit(ctx, ch.Params)
	if err != nil {
		ch.MarkFailed(err.Error())
		c.logger.Warn("captcha submission rejected",
			"challenge_id", ch.ID,
			"task_id", ch.TaskID,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrChallengeFailed, err)
	}
	ch.MarkSubmitted(remoteID)
	ch.MarkPolling()

	c.logger.Debug("captcha submitted",
		"challenge_id", ch.ID,
		"remote_id", remoteID,
		"type", ch.Params.Type,
	)

	deadline := time.NewTimer(c.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ch.MarkCancelled()
			return ctx.Err()

		case <-deadline.C:
			ch.MarkTimedOut()
			return ErrChallengeTimedOut

		case <-ticker.C:
			result, err := c.solver.Poll(ctx, remoteID)
			if err != nil {
				// Транспортная ошибка опроса транзиентна — ждём
				// следующего тика до общего дедлайна.
				c.logger.Debug("captcha poll error", "challenge_id", ch.ID, "error", err)
				continue
			}

			switch result.State {
			case PollStateSolved:
				cost := result.Cost
				if cost == 0 {
					cost = c.defaultCost
				}
				ch.MarkSolved(result.Token, cost)
				c.logger.Info("captcha solved",
					"challenge_id", ch.ID,
					"task_id", ch.TaskID,
					"duration", ch.SolveDuration(),
				)
				return nil

			case PollStateFailed:
				ch.MarkFailed(result.Error)
				return fmt.Errorf("%w: %s", ErrChallengeFailed, result.Error)
			}
			// pending — продолжаем опрос
		}
	}
}

// solveManual — ожидание сигнала оператора.
func (c *Client) solveManual(ctx context.Context, ch *domain.CaptchaChallenge) error {
	ch.MarkAwaitingOperator()

	c.logger.Info("captcha awaiting operator",
		"challenge_id", ch.ID,
		"task_id", ch.TaskID,
		"type", ch.Params.Type,
	)

	waitCtx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()

	token, cancelled, err := c.gate.Await(waitCtx, ch.ID)
	if err != nil {
		if ctx.Err() != nil {
			ch.MarkCancelled()
			return ctx.Err()
		}
		ch.MarkTimedOut()
		return ErrChallengeTimedOut
	}
	if cancelled {
		ch.MarkCancelled()
		return fmt.Errorf("%w: cancelled by operator", ErrChallengeFailed)
	}

	ch.MarkSolved(token, 0)
	return nil
}
