package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Copflow/internal/captcha"
	"github.com/shaiso/Copflow/internal/domain"
)

// scriptedAdapter — адаптер с заранее заданными исходами по шагам.
// Когда сценарий шага исчерпан, возвращается success.
type scriptedAdapter struct {
	mu      sync.Mutex
	script  map[string][]StepResult
	calls   map[string]int
	queue   bool
	tokens  []string
	blockOn string // имя шага, который висит до отмены контекста
}

func newScriptedAdapter() *scriptedAdapter {
	return &scriptedAdapter{
		script: make(map[string][]StepResult),
		calls:  make(map[string]int),
	}
}

func (a *scriptedAdapter) on(step string, results ...StepResult) {
	a.script[step] = append(a.script[step], results...)
}

func (a *scriptedAdapter) next(ctx context.Context, step string) (StepResult, error) {
	a.mu.Lock()
	if a.blockOn == step {
		a.mu.Unlock()
		<-ctx.Done()
		return StepResult{}, ctx.Err()
	}
	n := a.calls[step]
	a.calls[step] = n + 1
	queue := a.script[step]
	a.mu.Unlock()

	if n < len(queue) {
		return queue[n], nil
	}
	return StepResult{Outcome: OutcomeSuccess}, nil
}

func (a *scriptedAdapter) callCount(step string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[step]
}

func (a *scriptedAdapter) Authenticate(ctx context.Context) (StepResult, error) {
	return a.next(ctx, "authenticate")
}

func (a *scriptedAdapter) LocateProduct(ctx context.Context, _ string) (StepResult, error) {
	return a.next(ctx, "locate")
}

func (a *scriptedAdapter) SelectSize(ctx context.Context, _ string) (StepResult, error) {
	return a.next(ctx, "select_size")
}

func (a *scriptedAdapter) AddToCart(ctx context.Context) (StepResult, error) {
	return a.next(ctx, "add_to_cart")
}

func (a *scriptedAdapter) ReachCheckout(ctx context.Context) (StepResult, error) {
	return a.next(ctx, "reach_checkout")
}

func (a *scriptedAdapter) NeedsQueue() bool {
	return a.queue
}

func (a *scriptedAdapter) ProbeQueue(ctx context.Context) (StepResult, error) {
	return a.next(ctx, "probe_queue")
}

func (a *scriptedAdapter) SubmitChallengeToken(_ context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = append(a.tokens, token)
	return nil
}

// memRecorder собирает MetricEvent'ы в памяти.
type memRecorder struct {
	mu     sync.Mutex
	events []*domain.MetricEvent
}

func (r *memRecorder) Record(_ context.Context, ev *domain.MetricEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *memRecorder) byType(eventType string) []*domain.MetricEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.MetricEvent
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// instantSolver — solver, решающий любой challenge первым же опросом.
type instantSolver struct {
	submitErr error
	failPoll  bool
	pending   bool
}

func (s *instantSolver) Submit(_ context.Context, _ domain.ChallengeParams) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "remote-1", nil
}

func (s *instantSolver) Poll(_ context.Context, _ string) (captcha.PollResult, error) {
	if s.pending {
		return captcha.PollResult{State: captcha.PollStatePending}, nil
	}
	if s.failPoll {
		return captcha.PollResult{State: captcha.PollStateFailed, Error: "unsolvable"}, nil
	}
	return captcha.PollResult{State: captcha.PollStateSolved, Token: "solved-token"}, nil
}

func fastCaptcha(solver captcha.Solver, maxWait time.Duration) *captcha.Client {
	return captcha.New(captcha.Config{
		Solver:       solver,
		PollInterval: time.Millisecond,
		MaxWait:      maxWait,
	})
}

func fastMachine(rec Recorder, cap *captcha.Client, stepAttempts int) *Machine {
	return NewMachine(Config{
		Captcha:           cap,
		Recorder:          rec,
		StepMaxAttempts:   stepAttempts,
		Backoff:           Backoff{Base: time.Millisecond, Factor: 2, Cap: 5 * time.Millisecond},
		QueuePollInterval: time.Millisecond,
		QueueMaxWait:      50 * time.Millisecond,
	})
}

func newTask() *domain.CheckoutTask {
	task := domain.NewCheckoutTask("nike", "https://nike.example/air-max", "42")
	task.MarkStarted()
	return task
}

// --- Machine Tests ---

func TestRun_HappyPath(t *testing.T) {
	adapter := newScriptedAdapter()
	rec := &memRecorder{}
	m := fastMachine(rec, nil, 3)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if task.State != domain.TaskStateCompleted {
		t.Errorf("expected COMPLETED, got %s", task.State)
	}
	if task.Result != domain.TaskResultSuccess {
		t.Errorf("expected SUCCESS, got %s", task.Result)
	}
	// authenticate + locate + select_size + add_to_cart + reach_checkout
	if steps := rec.byType(domain.EventTypeStep); len(steps) != 5 {
		t.Errorf("expected 5 step events, got %d", len(steps))
	}
}

func TestRun_TransientRetrySucceeds(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("locate",
		StepResult{Outcome: OutcomeTransientError, Detail: "503"},
		StepResult{Outcome: OutcomeTransientError, Detail: "503"},
		StepResult{Outcome: OutcomeSuccess},
	)
	m := fastMachine(nil, nil, 3)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if task.State != domain.TaskStateCompleted {
		t.Errorf("expected COMPLETED, got %s", task.State)
	}
	if got := adapter.callCount("locate"); got != 3 {
		t.Errorf("expected 3 locate calls, got %d", got)
	}
}

func TestRun_TransientExhausted(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("locate",
		StepResult{Outcome: OutcomeTransientError, Detail: "503"},
		StepResult{Outcome: OutcomeTransientError, Detail: "503"},
	)
	m := fastMachine(nil, nil, 2)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if task.State != domain.TaskStateFailed {
		t.Fatalf("expected FAILED, got %s", task.State)
	}
	if task.Reason != domain.ReasonTransientError {
		t.Errorf("expected TRANSIENT_ERROR, got %s", task.Reason)
	}
	if got := adapter.callCount("select_size"); got != 0 {
		t.Errorf("later steps must not run, select_size called %d times", got)
	}
}

func TestRun_NotFound(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("locate", StepResult{Outcome: OutcomeNotFound, Detail: "no such product"})
	m := fastMachine(nil, nil, 3)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if task.Reason != domain.ReasonNotFound {
		t.Errorf("expected NOT_FOUND, got %s", task.Reason)
	}
	if got := adapter.callCount("locate"); got != 1 {
		t.Errorf("not_found must not retry, locate called %d times", got)
	}
}

func TestRun_FatalError(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("add_to_cart", StepResult{Outcome: OutcomeFatalError, Detail: "account banned"})
	m := fastMachine(nil, nil, 3)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if task.Reason != domain.ReasonFatalError {
		t.Errorf("expected FATAL_ERROR, got %s", task.Reason)
	}
	if task.Error != "account banned" {
		t.Errorf("unexpected error text: %q", task.Error)
	}
}

func TestRun_ChallengeSolvedAndStepRetried(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("add_to_cart",
		StepResult{Outcome: OutcomeChallengeRequired, Challenge: &domain.ChallengeParams{
			Type: "recaptcha_v2", SiteKey: "sk", PageURL: "https://nike.example",
		}},
		StepResult{Outcome: OutcomeSuccess},
	)
	rec := &memRecorder{}
	m := fastMachine(rec, fastCaptcha(&instantSolver{}, time.Second), 3)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if task.State != domain.TaskStateCompleted {
		t.Fatalf("expected COMPLETED, got %s", task.State)
	}
	if len(adapter.tokens) != 1 || adapter.tokens[0] != "solved-token" {
		t.Errorf("expected solved token submitted, got %v", adapter.tokens)
	}
	if got := adapter.callCount("add_to_cart"); got != 2 {
		t.Errorf("expected add_to_cart retried after solve, got %d calls", got)
	}
	if captchas := rec.byType(domain.EventTypeCaptcha); len(captchas) != 1 {
		t.Errorf("expected 1 captcha event, got %d", len(captchas))
	}
}

func TestRun_ChallengeFailedExhausts(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("authenticate", StepResult{Outcome: OutcomeChallengeRequired, Challenge: &domain.ChallengeParams{
		Type: "recaptcha_v2", SiteKey: "sk", PageURL: "https://nike.example",
	}})
	m := fastMachine(nil, fastCaptcha(&instantSolver{submitErr: fmt.Errorf("rejected")}, time.Second), 1)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if task.Reason != domain.ReasonChallengeFailed {
		t.Errorf("expected CHALLENGE_FAILED, got %s", task.Reason)
	}
}

func TestRun_ChallengeTimeout(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("authenticate", StepResult{Outcome: OutcomeChallengeRequired, Challenge: &domain.ChallengeParams{
		Type: "recaptcha_v2", SiteKey: "sk", PageURL: "https://nike.example",
	}})
	m := fastMachine(nil, fastCaptcha(&instantSolver{pending: true}, 10*time.Millisecond), 1)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if task.Reason != domain.ReasonChallengeTimeout {
		t.Errorf("expected CHALLENGE_TIMEOUT, got %s", task.Reason)
	}
}

func TestRun_ChallengeWithoutClient(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.on("authenticate", StepResult{Outcome: OutcomeChallengeRequired, Challenge: &domain.ChallengeParams{
		Type: "recaptcha_v2",
	}})
	m := fastMachine(nil, nil, 1)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if task.Reason != domain.ReasonChallengeFailed {
		t.Errorf("expected CHALLENGE_FAILED, got %s", task.Reason)
	}
}

func TestRun_QueueAdmitted(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.queue = true
	adapter.on("probe_queue",
		StepResult{Outcome: OutcomeTransientError, Detail: "position 120"},
		StepResult{Outcome: OutcomeTransientError, Detail: "position 40"},
		StepResult{Outcome: OutcomeSuccess},
	)
	m := fastMachine(nil, nil, 3)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if task.State != domain.TaskStateCompleted {
		t.Errorf("expected COMPLETED, got %s", task.State)
	}
	if got := adapter.callCount("probe_queue"); got != 3 {
		t.Errorf("expected 3 probes, got %d", got)
	}
}

func TestRun_QueueTimeout(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.queue = true
	for i := 0; i < 1000; i++ {
		adapter.on("probe_queue", StepResult{Outcome: OutcomeTransientError})
	}
	m := NewMachine(Config{
		QueuePollInterval: time.Millisecond,
		QueueMaxWait:      10 * time.Millisecond,
		Backoff:           Backoff{Base: time.Millisecond},
	})

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	if task.Reason != domain.ReasonQueueTimeout {
		t.Errorf("expected QUEUE_TIMEOUT, got %s", task.Reason)
	}
}

func TestRun_QueueSkippedWhenNotNeeded(t *testing.T) {
	adapter := newScriptedAdapter()
	m := fastMachine(nil, nil, 3)

	task := newTask()
	if err := m.Run(context.Background(), task, adapter); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := adapter.callCount("probe_queue"); got != 0 {
		t.Errorf("queue must be skipped, probed %d times", got)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	adapter := newScriptedAdapter()
	adapter.blockOn = "locate"
	m := fastMachine(nil, nil, 3)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	task := newTask()
	err := m.Run(ctx, task, adapter)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if task.IsFinished() {
		t.Errorf("task must stay non-terminal on context cancellation, got %s", task.State)
	}
}

// --- Registry Tests ---

func TestRegistry_New(t *testing.T) {
	r := NewRegistry()
	r.Register("nike", func(_ Session) (PlatformAdapter, error) {
		return newScriptedAdapter(), nil
	})

	if !r.Has("nike") {
		t.Error("expected nike registered")
	}
	adapter, err := r.New("nike", Session{Platform: "nike"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter == nil {
		t.Fatal("expected adapter")
	}

	if _, err := r.New("adidas", Session{}); !errors.Is(err, ErrPlatformNotFound) {
		t.Errorf("expected ErrPlatformNotFound, got %v", err)
	}
}

func TestRegistry_Platforms(t *testing.T) {
	r := NewRegistry()
	factory := func(_ Session) (PlatformAdapter, error) { return newScriptedAdapter(), nil }
	r.Register("nike", factory)
	r.Register("adidas", factory)

	platforms := r.Platforms()
	if len(platforms) != 2 || platforms[0] != "adidas" || platforms[1] != "nike" {
		t.Errorf("expected sorted [adidas nike], got %v", platforms)
	}
}
