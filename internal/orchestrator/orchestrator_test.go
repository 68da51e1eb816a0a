package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Copflow/internal/checkout"
	"github.com/shaiso/Copflow/internal/domain"
	"github.com/shaiso/Copflow/internal/pool"
)

// stubAdapter — адаптер, у которого каждый шаг ведёт себя одинаково.
type stubAdapter struct {
	block  bool
	result checkout.StepResult
}

func (a *stubAdapter) step(ctx context.Context) (checkout.StepResult, error) {
	if a.block {
		<-ctx.Done()
		return checkout.StepResult{}, ctx.Err()
	}
	if a.result.Outcome == "" {
		return checkout.StepResult{Outcome: checkout.OutcomeSuccess}, nil
	}
	return a.result, nil
}

func (a *stubAdapter) Authenticate(ctx context.Context) (checkout.StepResult, error) {
	return a.step(ctx)
}
func (a *stubAdapter) LocateProduct(ctx context.Context, _ string) (checkout.StepResult, error) {
	return a.step(ctx)
}
func (a *stubAdapter) SelectSize(ctx context.Context, _ string) (checkout.StepResult, error) {
	return a.step(ctx)
}
func (a *stubAdapter) AddToCart(ctx context.Context) (checkout.StepResult, error) {
	return a.step(ctx)
}
func (a *stubAdapter) ReachCheckout(ctx context.Context) (checkout.StepResult, error) {
	return a.step(ctx)
}
func (a *stubAdapter) NeedsQueue() bool { return false }
func (a *stubAdapter) ProbeQueue(ctx context.Context) (checkout.StepResult, error) {
	return a.step(ctx)
}
func (a *stubAdapter) SubmitChallengeToken(_ context.Context, _ string) error { return nil }

// memRecorder собирает события в памяти.
type memRecorder struct {
	mu     sync.Mutex
	events []*domain.MetricEvent
}

func (r *memRecorder) Record(_ context.Context, ev *domain.MetricEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *memRecorder) terminalCount(taskID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Terminal && ev.TaskID == taskID {
			n++
		}
	}
	return n
}

// memSink собирает уведомления.
type memSink struct {
	mu    sync.Mutex
	calls []string
}

func (s *memSink) Notify(_ context.Context, eventType, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, eventType+": "+message)
	return nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fixture struct {
	orch     *Orchestrator
	pool     *pool.Manager
	recorder *memRecorder
	sink     *memSink
}

func newFixture(t *testing.T, adapter *stubAdapter, override func(*Config)) *fixture {
	t.Helper()

	pm := pool.New(pool.Config{})
	pm.AddAccount(domain.NewAccount("nike", "a@example.com", "secret"))
	pm.AddProxy(domain.NewProxy("10.0.0.1:8080", "http"))

	registry := checkout.NewRegistry()
	registry.Register("nike", func(_ checkout.Session) (checkout.PlatformAdapter, error) {
		return adapter, nil
	})

	recorder := &memRecorder{}
	sink := &memSink{}

	cfg := Config{
		Pool:     pm,
		Registry: registry,
		Machine: checkout.NewMachine(checkout.Config{
			Recorder:        recorder,
			StepMaxAttempts: 2,
			Backoff:         checkout.Backoff{Base: time.Millisecond, Factor: 2, Cap: 2 * time.Millisecond},
		}),
		Recorder:        recorder,
		Notifier:        sink,
		Workers:         2,
		QueueCapacity:   8,
		TaskTimeout:     time.Second,
		TaskMaxAttempts: 2,
		TaskRetryDelay:  time.Millisecond,
		NotifyOnSuccess: true,
		NotifyOnFailure: true,
	}
	if override != nil {
		override(&cfg)
	}

	return &fixture{
		orch:     New(cfg),
		pool:     pm,
		recorder: recorder,
		sink:     sink,
	}
}

func waitTerminal(t *testing.T, o *Orchestrator, id uuid.UUID) TaskView {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		view, err := o.Status(id)
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if view.State.IsTerminal() {
			return view
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state")
	return TaskView{}
}

func TestSubmitAndComplete(t *testing.T) {
	f := newFixture(t, &stubAdapter{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer f.orch.Stop()

	id, err := f.orch.Submit(Request{Platform: "nike", Product: "https://nike.example/air", Size: "42"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	view := waitTerminal(t, f.orch, id)
	if view.State != domain.TaskStateCompleted || view.Result != domain.TaskResultSuccess {
		t.Errorf("expected COMPLETED/SUCCESS, got %s/%s", view.State, view.Result)
	}
	if got := f.recorder.terminalCount(id); got != 1 {
		t.Errorf("expected exactly 1 terminal event, got %d", got)
	}
	if f.sink.count() != 1 {
		t.Errorf("expected 1 notification, got %d", f.sink.count())
	}

	// Ресурсы вернулись в пул
	if _, err := f.pool.AcquireAccount(context.Background(), "nike"); err != nil {
		t.Errorf("account not released: %v", err)
	}
	if _, err := f.pool.AcquireProxy(context.Background()); err != nil {
		t.Errorf("proxy not released: %v", err)
	}
}

func TestSubmit_Backpressure(t *testing.T) {
	// Воркеры не запущены: очередь заполняется сразу.
	f := newFixture(t, &stubAdapter{}, func(cfg *Config) {
		cfg.QueueCapacity = 1
	})

	if _, err := f.orch.Submit(Request{Platform: "nike", Product: "p1"}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := f.orch.Submit(Request{Platform: "nike", Product: "p2"}); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("expected ErrBackpressure, got %v", err)
	}
}

func TestSubmit_UnknownPlatform(t *testing.T) {
	f := newFixture(t, &stubAdapter{}, nil)

	if _, err := f.orch.Submit(Request{Platform: "adidas", Product: "p"}); !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("expected ErrUnknownPlatform, got %v", err)
	}
	if _, err := f.orch.Submit(Request{Platform: "nike"}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestResourceUnavailable_RetriesThenFails(t *testing.T) {
	f := newFixture(t, &stubAdapter{}, func(cfg *Config) {
		cfg.Pool = pool.New(pool.Config{}) // пустой пул
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer f.orch.Stop()

	id, err := f.orch.Submit(Request{Platform: "nike", Product: "p", Size: "42"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	view := waitTerminal(t, f.orch, id)
	if view.Result != domain.TaskResultFailed || view.Reason != domain.ReasonResourceUnavailable {
		t.Errorf("expected FAILED/RESOURCE_UNAVAILABLE, got %s/%s", view.Result, view.Reason)
	}
	if view.Attempt != 2 {
		t.Errorf("expected 2 attempts, got %d", view.Attempt)
	}
	if got := f.recorder.terminalCount(id); got != 1 {
		t.Errorf("expected exactly 1 terminal event, got %d", got)
	}
}

func TestTaskTimeout(t *testing.T) {
	f := newFixture(t, &stubAdapter{block: true}, func(cfg *Config) {
		cfg.TaskTimeout = 20 * time.Millisecond
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer f.orch.Stop()

	id, err := f.orch.Submit(Request{Platform: "nike", Product: "p", Size: "42"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	view := waitTerminal(t, f.orch, id)
	if view.Result != domain.TaskResultCancelled || view.Reason != domain.ReasonTimeout {
		t.Errorf("expected CANCELLED/TIMEOUT, got %s/%s", view.Result, view.Reason)
	}

	// Ресурсы освобождены несмотря на таймаут
	if _, err := f.pool.AcquireAccount(context.Background(), "nike"); err != nil {
		t.Errorf("account not released after timeout: %v", err)
	}
}

func TestCancelRunning(t *testing.T) {
	f := newFixture(t, &stubAdapter{block: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer f.orch.Stop()

	id, err := f.orch.Submit(Request{Platform: "nike", Product: "p", Size: "42"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Дожидаемся, пока задача повиснет внутри шага
	deadline := time.Now().Add(time.Second)
	for {
		view, _ := f.orch.Status(id)
		if view.State == domain.TaskStateAuthenticating {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task never started running")
		}
		time.Sleep(time.Millisecond)
	}

	if err := f.orch.Cancel(id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	view := waitTerminal(t, f.orch, id)
	if view.Result != domain.TaskResultCancelled || view.Reason != domain.ReasonCancelled {
		t.Errorf("expected CANCELLED/CANCELLED, got %s/%s", view.Result, view.Reason)
	}
}

func TestCancel_FinishedTask(t *testing.T) {
	f := newFixture(t, &stubAdapter{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer f.orch.Stop()

	id, _ := f.orch.Submit(Request{Platform: "nike", Product: "p", Size: "42"})
	waitTerminal(t, f.orch, id)

	if err := f.orch.Cancel(id); !errors.Is(err, ErrTaskFinished) {
		t.Errorf("expected ErrTaskFinished, got %v", err)
	}
	if err := f.orch.Cancel(uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestFailedTaskReportsResources(t *testing.T) {
	f := newFixture(t, &stubAdapter{result: checkout.StepResult{
		Outcome: checkout.OutcomeFatalError,
		Detail:  "account banned",
	}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.orch.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer f.orch.Stop()

	id, _ := f.orch.Submit(Request{Platform: "nike", Product: "p", Size: "42"})
	view := waitTerminal(t, f.orch, id)

	if view.Result != domain.TaskResultFailed || view.Reason != domain.ReasonFatalError {
		t.Errorf("expected FAILED/FATAL_ERROR, got %s/%s", view.Result, view.Reason)
	}

	accounts := f.pool.Accounts("nike")
	if len(accounts) != 1 || accounts[0].ConsecutiveFailures != 1 {
		t.Errorf("expected account failure recorded, got %+v", accounts)
	}
}
