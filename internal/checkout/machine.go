package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaiso/Copflow/internal/captcha"
	"github.com/shaiso/Copflow/internal/domain"
)

// Default configuration values.
const (
	defaultStepMaxAttempts   = 3
	defaultQueuePollInterval = 5 * time.Second
	defaultQueueMaxWait      = 10 * time.Minute
)

// Recorder принимает MetricEvent'ы выполнения.
type Recorder interface {
	Record(ctx context.Context, event *domain.MetricEvent)
}

// Machine ведёт одну задачу через последовательность шагов checkout.
//
// Переходы монотонны: неудача текущего шага либо повторяет этот же шаг,
// либо завершает задачу. Возврата к предыдущим шагам нет. Machine не
// владеет ресурсами задачи и не записывает терминальное событие: это
// зона ответственности Orchestrator'а.
type Machine struct {
	captcha           *captcha.Client
	recorder          Recorder
	stepMaxAttempts   int
	backoff           Backoff
	queuePollInterval time.Duration
	queueMaxWait      time.Duration
	logger            *slog.Logger
}

// Config — конфигурация Machine.
type Config struct {
	// Captcha — клиент решения CAPTCHA. Без него challenge_required
	// завершает задачу с CHALLENGE_FAILED.
	Captcha *captcha.Client

	// Recorder — приёмник MetricEvent'ов. Опционален.
	Recorder Recorder

	// StepMaxAttempts — попыток на один шаг (default: 3).
	StepMaxAttempts int

	// Backoff — задержка между попытками шага.
	Backoff Backoff

	// QueuePollInterval — интервал опроса очереди входа (default: 5s).
	QueuePollInterval time.Duration

	// QueueMaxWait — максимальное ожидание допуска (default: 10m).
	QueueMaxWait time.Duration

	// Logger
	Logger *slog.Logger
}

// NewMachine создаёт Machine.
func NewMachine(cfg Config) *Machine {
	stepMaxAttempts := cfg.StepMaxAttempts
	if stepMaxAttempts <= 0 {
		stepMaxAttempts = defaultStepMaxAttempts
	}

	queuePollInterval := cfg.QueuePollInterval
	if queuePollInterval <= 0 {
		queuePollInterval = defaultQueuePollInterval
	}

	queueMaxWait := cfg.QueueMaxWait
	if queueMaxWait <= 0 {
		queueMaxWait = defaultQueueMaxWait
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Machine{
		captcha:           cfg.Captcha,
		recorder:          cfg.Recorder,
		stepMaxAttempts:   stepMaxAttempts,
		backoff:           cfg.Backoff.normalized(),
		queuePollInterval: queuePollInterval,
		queueMaxWait:      queueMaxWait,
		logger:            logger,
	}
}

// Run ведёт задачу от AUTHENTICATING до терминального состояния.
//
// Возвращает nil, когда задача достигла COMPLETED или FAILED
// (итог читается из самой задачи). Ошибка контекста возвращается
// как есть: задача остаётся нетерминальной, и вызывающая сторона
// решает, CANCELLED это или TIMEOUT.
func (m *Machine) Run(ctx context.Context, task *domain.CheckoutTask, adapter PlatformAdapter) error {
	if err := m.runStep(ctx, task, domain.TaskStateAuthenticating, adapter, adapter.Authenticate); err != nil {
		return swallowFailure(err)
	}

	if adapter.NeedsQueue() {
		if err := m.waitQueue(ctx, task, adapter); err != nil {
			return swallowFailure(err)
		}
	}

	steps := []struct {
		state domain.TaskState
		call  func(context.Context) (StepResult, error)
	}{
		{domain.TaskStateLocatingProduct, func(ctx context.Context) (StepResult, error) {
			return adapter.LocateProduct(ctx, task.Product)
		}},
		{domain.TaskStateSelectingSize, func(ctx context.Context) (StepResult, error) {
			return adapter.SelectSize(ctx, task.Size)
		}},
		{domain.TaskStateAddingToCart, adapter.AddToCart},
		{domain.TaskStateReachingCheckout, adapter.ReachCheckout},
	}

	for _, step := range steps {
		if err := m.runStep(ctx, task, step.state, adapter, step.call); err != nil {
			return swallowFailure(err)
		}
	}

	task.MarkCompleted()
	m.logger.Info("checkout reached",
		"task_id", task.ID,
		"platform", task.Platform,
		"duration", time.Since(*task.StartedAt),
	)
	return nil
}

// swallowFailure гасит errTaskFailed: терминальный исход уже записан
// в задачу. Ошибки контекста проходят насквозь.
func swallowFailure(err error) error {
	if errors.Is(err, errTaskFailed) {
		return nil
	}
	return err
}

// runStep выполняет один шаг с ограниченными повторами.
func (m *Machine) runStep(ctx context.Context, task *domain.CheckoutTask, state domain.TaskState, adapter PlatformAdapter, call func(context.Context) (StepResult, error)) error {
	task.SetState(state)
	name := stepName(state)

	for attempt := 1; attempt <= m.stepMaxAttempts; attempt++ {
		res, err := call(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res = StepResult{Outcome: OutcomeTransientError, Detail: err.Error()}
		}

		m.emitStep(ctx, task, name, map[string]any{
			"outcome": string(res.Outcome),
			"attempt": attempt,
		})

		switch res.Outcome {
		case OutcomeSuccess:
			return nil

		case OutcomeNotFound:
			task.MarkFailed(domain.ReasonNotFound, res.Detail)
			return errTaskFailed

		case OutcomeFatalError:
			task.MarkFailed(domain.ReasonFatalError, res.Detail)
			return errTaskFailed

		case OutcomeChallengeRequired:
			solveErr := m.resolveChallenge(ctx, task, adapter, res.Challenge)
			switch {
			case solveErr == nil:
				// Токен принят, повторяем шаг без задержки.
				continue
			case errors.Is(solveErr, captcha.ErrChallengeTimedOut):
				if attempt == m.stepMaxAttempts {
					task.MarkFailed(domain.ReasonChallengeTimeout, solveErr.Error())
					return errTaskFailed
				}
				continue
			case errors.Is(solveErr, captcha.ErrChallengeFailed):
				if attempt == m.stepMaxAttempts {
					task.MarkFailed(domain.ReasonChallengeFailed, solveErr.Error())
					return errTaskFailed
				}
				continue
			default:
				return solveErr
			}

		default: // transient_error
			if attempt == m.stepMaxAttempts {
				task.MarkFailed(domain.ReasonTransientError, res.Detail)
				return errTaskFailed
			}
			delay := m.backoff.Delay(attempt)
			m.logger.Debug("step retry scheduled",
				"task_id", task.ID,
				"step", name,
				"attempt", attempt,
				"delay", delay,
			)
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	// Решённые challenges съели все попытки шага.
	task.MarkFailed(domain.ReasonTransientError, fmt.Sprintf("step %s: attempts exhausted", name))
	return errTaskFailed
}

// resolveChallenge решает CAPTCHA и передаёт токен адаптеру.
// Каждый вызов создаёт новый challenge: терминальные состояния
// предыдущего не переиспользуются.
func (m *Machine) resolveChallenge(ctx context.Context, task *domain.CheckoutTask, adapter PlatformAdapter, params *domain.ChallengeParams) error {
	if params == nil {
		return fmt.Errorf("%w: challenge required without parameters", captcha.ErrChallengeFailed)
	}
	if m.captcha == nil {
		return fmt.Errorf("%w: no captcha client configured", captcha.ErrChallengeFailed)
	}

	ch := domain.NewCaptchaChallenge(task.ID, *params)
	solveErr := m.captcha.Solve(ctx, ch)

	detail := map[string]any{
		"state": string(ch.State),
		"cost":  ch.Cost,
	}
	if d := ch.SolveDuration(); d > 0 {
		detail["duration_ms"] = d.Milliseconds()
	}
	m.emitCaptcha(ctx, task, params.Type, detail)

	if solveErr != nil {
		return solveErr
	}

	if err := adapter.SubmitChallengeToken(ctx, ch.Token); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: submit token: %v", captcha.ErrChallengeFailed, err)
	}
	return nil
}

// waitQueue опрашивает очередь входа до допуска или дедлайна.
func (m *Machine) waitQueue(ctx context.Context, task *domain.CheckoutTask, adapter PlatformAdapter) error {
	task.SetState(domain.TaskStateQueueing)
	start := time.Now()
	deadline := start.Add(m.queueMaxWait)

	for {
		res, err := adapter.ProbeQueue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res = StepResult{Outcome: OutcomeTransientError, Detail: err.Error()}
		}

		switch res.Outcome {
		case OutcomeSuccess:
			m.emitStep(ctx, task, stepName(domain.TaskStateQueueing), map[string]any{
				"outcome":   string(OutcomeSuccess),
				"waited_ms": time.Since(start).Milliseconds(),
			})
			return nil

		case OutcomeFatalError, OutcomeNotFound:
			m.emitStep(ctx, task, stepName(domain.TaskStateQueueing), map[string]any{
				"outcome":   string(res.Outcome),
				"waited_ms": time.Since(start).Milliseconds(),
			})
			task.MarkFailed(domain.ReasonFatalError, res.Detail)
			return errTaskFailed
		}

		if !time.Now().Before(deadline) {
			m.emitStep(ctx, task, stepName(domain.TaskStateQueueing), map[string]any{
				"outcome":   "queue_timeout",
				"waited_ms": time.Since(start).Milliseconds(),
			})
			task.MarkFailed(domain.ReasonQueueTimeout, fmt.Sprintf("queue admission not granted within %s", m.queueMaxWait))
			return errTaskFailed
		}

		if err := sleep(ctx, m.queuePollInterval); err != nil {
			return err
		}
	}
}

func (m *Machine) emitStep(ctx context.Context, task *domain.CheckoutTask, name string, detail map[string]any) {
	if m.recorder == nil {
		return
	}
	m.recorder.Record(ctx, domain.NewMetricEvent(task, domain.EventTypeStep, name, detail))
}

func (m *Machine) emitCaptcha(ctx context.Context, task *domain.CheckoutTask, challengeType string, detail map[string]any) {
	if m.recorder == nil {
		return
	}
	m.recorder.Record(ctx, domain.NewMetricEvent(task, domain.EventTypeCaptcha, challengeType, detail))
}

// stepName — имя шага для событий и логов (lowercase-форма состояния).
func stepName(state domain.TaskState) string {
	return strings.ToLower(string(state))
}
