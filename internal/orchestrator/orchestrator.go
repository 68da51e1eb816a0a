package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Copflow/internal/checkout"
	"github.com/shaiso/Copflow/internal/domain"
	"github.com/shaiso/Copflow/internal/notify"
	"github.com/shaiso/Copflow/internal/pool"
	"github.com/shaiso/Copflow/internal/telemetry"
)

// Default configuration values.
const (
	defaultWorkers         = 5
	defaultQueueCapacity   = 50
	defaultTaskTimeout     = 15 * time.Minute
	defaultTaskMaxAttempts = 3
	defaultTaskRetryDelay  = 5 * time.Second
)

// TaskArchive — долговременное хранилище терминальных задач.
type TaskArchive interface {
	Archive(ctx context.Context, task *domain.CheckoutTask) error
}

// Orchestrator владеет очередью задач и пулом воркеров.
type Orchestrator struct {
	// Collaborators
	pool     *pool.Manager
	registry *checkout.Registry
	machine  *checkout.Machine
	recorder checkout.Recorder
	archive  TaskArchive
	notifier notify.Sink

	// Configuration
	workers         int
	queueCapacity   int
	taskTimeout     time.Duration
	taskMaxAttempts int
	taskRetryDelay  time.Duration
	notifyOnSuccess bool
	notifyOnFailure bool

	// Tasks
	mu    sync.RWMutex
	tasks map[uuid.UUID]*taskEntry
	queue chan *taskEntry

	// Lifecycle
	logger     *slog.Logger
	runCtx     context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Collaborators
	Pool     *pool.Manager
	Registry *checkout.Registry
	Machine  *checkout.Machine

	// Recorder — приёмник MetricEvent'ов. Опционален.
	Recorder checkout.Recorder

	// Archive — архив терминальных задач. Опционален.
	Archive TaskArchive

	// Notifier — канал уведомлений. Опционален.
	Notifier notify.Sink

	// Workers — размер пула воркеров (default: 5).
	Workers int

	// QueueCapacity — ёмкость очереди задач (default: 50).
	QueueCapacity int

	// TaskTimeout — бюджет времени одной задачи (default: 15m).
	TaskTimeout time.Duration

	// TaskMaxAttempts — попыток задачи целиком, включая первую (default: 3).
	TaskMaxAttempts int

	// TaskRetryDelay — задержка перед повторной постановкой (default: 5s).
	TaskRetryDelay time.Duration

	// NotifyOnSuccess, NotifyOnFailure — переключатели уведомлений.
	NotifyOnSuccess bool
	NotifyOnFailure bool

	// Logger
	Logger *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	queueCapacity := cfg.QueueCapacity
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}

	taskTimeout := cfg.TaskTimeout
	if taskTimeout <= 0 {
		taskTimeout = defaultTaskTimeout
	}

	taskMaxAttempts := cfg.TaskMaxAttempts
	if taskMaxAttempts <= 0 {
		taskMaxAttempts = defaultTaskMaxAttempts
	}

	taskRetryDelay := cfg.TaskRetryDelay
	if taskRetryDelay <= 0 {
		taskRetryDelay = defaultTaskRetryDelay
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		pool:            cfg.Pool,
		registry:        cfg.Registry,
		machine:         cfg.Machine,
		recorder:        cfg.Recorder,
		archive:         cfg.Archive,
		notifier:        cfg.Notifier,
		workers:         workers,
		queueCapacity:   queueCapacity,
		taskTimeout:     taskTimeout,
		taskMaxAttempts: taskMaxAttempts,
		taskRetryDelay:  taskRetryDelay,
		notifyOnSuccess: cfg.NotifyOnSuccess,
		notifyOnFailure: cfg.NotifyOnFailure,
		tasks:           make(map[uuid.UUID]*taskEntry),
		queue:           make(chan *taskEntry, queueCapacity),
		logger:          logger,
	}
}

// Start запускает пул воркеров.
func (o *Orchestrator) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	o.runCtx = runCtx
	o.cancelFunc = cancel

	o.logger.Info("starting orchestrator",
		"workers", o.workers,
		"queue_capacity", o.queueCapacity,
		"task_timeout", o.taskTimeout,
	)

	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go func(n int) {
			defer o.wg.Done()
			o.workerLoop(runCtx, n)
		}(i)
	}

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает оркестратор и ждёт завершения воркеров.
// Выполняющиеся задачи прерываются в ближайшей точке приостановки.
func (o *Orchestrator) Stop() {
	o.stoppedMu.Lock()
	o.stopped = true
	o.stoppedMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	if o.cancelFunc != nil {
		o.cancelFunc()
	}
	o.wg.Wait()

	o.logger.Info("orchestrator stopped")
}

// IsStopped проверяет, остановлен ли оркестратор.
func (o *Orchestrator) IsStopped() bool {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	return o.stopped
}

// Request — запрос на постановку задачи.
type Request struct {
	Platform string `json:"platform"`
	Product  string `json:"product"`
	Size     string `json:"size"`
}

// Submit ставит задачу в очередь.
//
// Никогда не блокирует: при заполненной очереди запрос отклоняется
// с ErrBackpressure, задача не создаётся.
func (o *Orchestrator) Submit(req Request) (uuid.UUID, error) {
	if req.Platform == "" || req.Product == "" {
		return uuid.Nil, fmt.Errorf("%w: platform and product are required", ErrInvalidRequest)
	}
	if o.registry != nil && !o.registry.Has(req.Platform) {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, req.Platform)
	}

	task := domain.NewCheckoutTask(req.Platform, req.Product, req.Size)
	entry := &taskEntry{task: task}
	entry.publish()

	o.mu.Lock()
	o.tasks[task.ID] = entry
	o.mu.Unlock()

	select {
	case o.queue <- entry:
		o.logger.Info("task submitted",
			"task_id", task.ID,
			"platform", task.Platform,
			"product", task.Product,
		)
		return task.ID, nil
	default:
		o.mu.Lock()
		delete(o.tasks, task.ID)
		o.mu.Unlock()
		return uuid.Nil, ErrBackpressure
	}
}

// Cancel запрашивает отмену задачи.
func (o *Orchestrator) Cancel(id uuid.UUID) error {
	entry, err := o.entry(id)
	if err != nil {
		return err
	}

	interrupt, err := entry.markCancelRequested()
	if err != nil {
		return err
	}
	if interrupt != nil {
		interrupt()
	}

	o.logger.Info("task cancellation requested", "task_id", id)
	return nil
}

// Status возвращает снимок задачи.
func (o *Orchestrator) Status(id uuid.UUID) (TaskView, error) {
	entry, err := o.entry(id)
	if err != nil {
		return TaskView{}, err
	}
	return entry.snapshot(), nil
}

// Tasks возвращает снимки всех известных задач.
func (o *Orchestrator) Tasks() []TaskView {
	o.mu.RLock()
	defer o.mu.RUnlock()

	views := make([]TaskView, 0, len(o.tasks))
	for _, entry := range o.tasks {
		views = append(views, entry.snapshot())
	}
	return views
}

func (o *Orchestrator) entry(id uuid.UUID) (*taskEntry, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	entry, ok := o.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return entry, nil
}

// workerLoop — цикл одного воркера.
func (o *Orchestrator) workerLoop(ctx context.Context, n int) {
	logger := o.logger.With("worker", n)
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped")
			return
		case entry := <-o.queue:
			o.runTask(ctx, entry)
		}
	}
}

// runTask выполняет одну задачу от выдачи ресурсов до терминала.
func (o *Orchestrator) runTask(ctx context.Context, entry *taskEntry) {
	task := entry.task

	if entry.cancelRequested() {
		task.MarkCancelled(domain.ReasonCancelled)
		o.finalize(ctx, entry)
		return
	}

	task.MarkStarted()
	entry.publish()

	logger := telemetry.WithPlatform(telemetry.WithTaskID(o.logger, task.ID.String()), task.Platform)

	account, err := o.pool.AcquireAccount(ctx, task.Platform)
	if err != nil {
		o.retryOrFail(ctx, entry, err)
		return
	}

	proxy, err := o.pool.AcquireProxy(ctx)
	if err != nil {
		o.pool.ReleaseAccount(ctx, account)
		o.retryOrFail(ctx, entry, err)
		return
	}

	task.BindResources(account.ID, proxy.ID)
	entry.publish()

	logger = telemetry.WithProxy(logger, proxy.Address)
	logger.Info("task running", "account", account.Email)

	adapter, err := o.registry.New(task.Platform, checkout.Session{
		Platform:    task.Platform,
		Email:       account.Email,
		Credentials: account.Credentials,
		ProxyURL:    proxy.URL,
	})
	if err != nil {
		o.pool.ReleaseAccount(ctx, account)
		o.pool.ReleaseProxy(ctx, proxy)
		task.MarkFailed(domain.ReasonFatalError, err.Error())
		o.finalize(ctx, entry)
		return
	}

	taskCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
	if entry.bindCancel(cancel) {
		cancel()
	}

	start := time.Now()
	runErr := o.machine.Run(taskCtx, task, adapter)
	timedOut := errors.Is(taskCtx.Err(), context.DeadlineExceeded)
	cancel()
	explicit := entry.unbindCancel()

	if runErr != nil {
		// Машина вернула ошибку контекста: задача нетерминальна,
		// причину определяет то, какой контекст сработал.
		switch {
		case explicit:
			task.MarkCancelled(domain.ReasonCancelled)
		case timedOut:
			task.MarkCancelled(domain.ReasonTimeout)
		default:
			task.MarkCancelled(domain.ReasonCancelled)
		}
	}

	// Отчёт пулу: отменённая задача не засчитывается ресурсам
	// ни успехом, ни неудачей.
	latency := time.Since(start)
	switch task.Result {
	case domain.TaskResultSuccess:
		o.pool.ReportAccount(ctx, account, true, "")
		o.pool.ReportProxy(ctx, proxy, true, latency, "")
	case domain.TaskResultFailed:
		o.pool.ReportAccount(ctx, account, false, string(task.Reason))
		o.pool.ReportProxy(ctx, proxy, false, latency, string(task.Reason))
	}
	o.emitProxyFeedback(ctx, task, proxy, latency)

	o.pool.ReleaseAccount(ctx, account)
	o.pool.ReleaseProxy(ctx, proxy)

	o.finalize(ctx, entry)
}

// retryOrFail обрабатывает отказ выдачи ресурсов: повторная
// постановка в очередь, пока попытки задачи не исчерпаны.
func (o *Orchestrator) retryOrFail(ctx context.Context, entry *taskEntry, cause error) {
	task := entry.task

	reason := domain.ReasonFatalError
	if errors.Is(cause, pool.ErrResourceUnavailable) {
		reason = domain.ReasonResourceUnavailable
	}
	if !reason.IsTaskRetryable() {
		task.MarkFailed(reason, cause.Error())
		o.finalize(ctx, entry)
		return
	}

	if entry.cancelRequested() || !task.CanRetry(o.taskMaxAttempts) {
		if entry.cancelRequested() {
			task.MarkCancelled(domain.ReasonCancelled)
		} else {
			task.MarkFailed(reason, cause.Error())
		}
		o.finalize(ctx, entry)
		return
	}

	task.ReleaseResources()
	task.ResetForRetry()
	entry.publish()

	o.logger.Info("task requeue scheduled",
		"task_id", task.ID,
		"attempt", task.Attempt,
		"delay", o.taskRetryDelay,
	)

	// Повтор не занимает воркера: ожидание и постановка в очередь
	// уходят в отдельную горутину.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		timer := time.NewTimer(o.taskRetryDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			task.MarkCancelled(domain.ReasonCancelled)
			o.finalize(context.Background(), entry)
			return
		case <-timer.C:
		}

		select {
		case o.queue <- entry:
		default:
			task.MarkFailed(domain.ReasonBackpressure, "queue full on requeue")
			o.finalize(ctx, entry)
		}
	}()
}

// finalize фиксирует терминальный исход: снимок, терминальное
// событие, архив, уведомления. Вызывается ровно один раз на задачу.
func (o *Orchestrator) finalize(ctx context.Context, entry *taskEntry) {
	task := entry.task
	entry.publish()

	o.logger.Info("task finished",
		"task_id", task.ID,
		"platform", task.Platform,
		"result", task.Result,
		"reason", task.Reason,
		"attempt", task.Attempt,
		"duration", task.Duration(),
	)

	if o.recorder != nil {
		o.recorder.Record(ctx, domain.NewTerminalEvent(task))
	}

	if o.archive != nil {
		if err := o.archive.Archive(ctx, task); err != nil {
			o.logger.Warn("task archive failed", "task_id", task.ID, "error", err)
		}
	}

	o.notifyOutcome(ctx, task)
}

// notifyOutcome рассылает уведомление о терминальном исходе.
func (o *Orchestrator) notifyOutcome(ctx context.Context, task *domain.CheckoutTask) {
	if o.notifier == nil {
		return
	}

	var eventType string
	switch task.Result {
	case domain.TaskResultSuccess:
		if !o.notifyOnSuccess {
			return
		}
		eventType = notify.EventSuccess
	case domain.TaskResultCancelled:
		if !o.notifyOnFailure {
			return
		}
		eventType = notify.EventCancelled
	default:
		if !o.notifyOnFailure {
			return
		}
		eventType = notify.EventFailure
	}

	message := fmt.Sprintf("%s %s (size %s): %s", task.Platform, task.Product, task.Size, task.Result)
	if task.Reason != domain.ReasonNone {
		message += fmt.Sprintf(" [%s]", task.Reason)
	}

	if err := o.notifier.Notify(ctx, eventType, message); err != nil {
		o.logger.Warn("notification failed", "task_id", task.ID, "error", err)
	}
}

// emitProxyFeedback пишет событие обратной связи по прокси.
func (o *Orchestrator) emitProxyFeedback(ctx context.Context, task *domain.CheckoutTask, proxy pool.ProxyHandle, latency time.Duration) {
	if o.recorder == nil {
		return
	}
	o.recorder.Record(ctx, domain.NewMetricEvent(task, domain.EventTypeProxy, proxy.Address, map[string]any{
		"result":     string(task.Result),
		"latency_ms": latency.Milliseconds(),
	}))
}
