package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/Copflow/internal/domain"
)

func newRecorder() *Recorder {
	return NewRecorder(Config{
		Metrics: NewMetrics(prometheus.NewRegistry()),
	})
}

func finishedTask(platform string, result domain.TaskResult, reason domain.ReasonCode) *domain.CheckoutTask {
	task := domain.NewCheckoutTask(platform, "https://store.example/item", "42")
	task.MarkStarted()
	switch result {
	case domain.TaskResultSuccess:
		task.MarkCompleted()
	case domain.TaskResultCancelled:
		task.MarkCancelled(reason)
	default:
		task.MarkFailed(reason, "boom")
	}
	return task
}

func TestSummarize_Counts(t *testing.T) {
	r := newRecorder()
	ctx := context.Background()

	r.Record(ctx, domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultSuccess, domain.ReasonNone)))
	r.Record(ctx, domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultSuccess, domain.ReasonNone)))
	r.Record(ctx, domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultFailed, domain.ReasonTransientError)))
	r.Record(ctx, domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultFailed, domain.ReasonFatalError)))
	r.Record(ctx, domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultCancelled, domain.ReasonTimeout)))
	// Чужая платформа не попадает в сводку
	r.Record(ctx, domain.NewTerminalEvent(finishedTask("adidas", domain.TaskResultSuccess, domain.ReasonNone)))

	s, err := r.Summarize(ctx, "nike", 7)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	if s.Attempts != 5 {
		t.Errorf("expected 5 attempts, got %d", s.Attempts)
	}
	if s.Successes != 2 || s.Failures != 2 || s.Cancellations != 1 {
		t.Errorf("unexpected outcome counts: %+v", s)
	}
	if s.SuccessRate != 0.4 {
		t.Errorf("expected success rate 0.4, got %f", s.SuccessRate)
	}
	if s.DetectionRate != 0.2 {
		t.Errorf("expected detection rate 0.2, got %f", s.DetectionRate)
	}
}

func TestSummarize_CaptchaRates(t *testing.T) {
	r := newRecorder()
	ctx := context.Background()

	solved := finishedTask("nike", domain.TaskResultSuccess, domain.ReasonNone)
	r.Record(ctx, domain.NewMetricEvent(solved, domain.EventTypeCaptcha, "recaptcha_v2", map[string]any{
		"state": string(domain.ChallengeStateSolved),
		"cost":  0.003,
	}))
	r.Record(ctx, domain.NewTerminalEvent(solved))

	failed := finishedTask("nike", domain.TaskResultFailed, domain.ReasonChallengeFailed)
	r.Record(ctx, domain.NewMetricEvent(failed, domain.EventTypeCaptcha, "recaptcha_v2", map[string]any{
		"state": string(domain.ChallengeStateFailed),
		"cost":  0.0,
	}))
	r.Record(ctx, domain.NewTerminalEvent(failed))

	clean := finishedTask("nike", domain.TaskResultSuccess, domain.ReasonNone)
	r.Record(ctx, domain.NewTerminalEvent(clean))

	s, err := r.Summarize(ctx, "nike", 7)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	if s.ChallengeSolveRate != 0.5 {
		t.Errorf("expected solve rate 0.5, got %f", s.ChallengeSolveRate)
	}
	want := 2.0 / 3.0
	if diff := s.ChallengeEncounterRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected encounter rate %f, got %f", want, s.ChallengeEncounterRate)
	}
	if s.CaptchaCost != 0.003 {
		t.Errorf("expected captcha cost 0.003, got %f", s.CaptchaCost)
	}
}

func TestSummarize_IdempotentBetweenRecords(t *testing.T) {
	r := newRecorder()
	ctx := context.Background()

	r.Record(ctx, domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultSuccess, domain.ReasonNone)))

	first, err := r.Summarize(ctx, "nike", 7)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	second, err := r.Summarize(ctx, "nike", 7)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	if first != second {
		t.Errorf("summaries differ between calls: %+v vs %+v", first, second)
	}
}

func TestSummarize_Empty(t *testing.T) {
	r := newRecorder()

	s, err := r.Summarize(context.Background(), "nike", 7)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if s.Attempts != 0 || s.SuccessRate != 0 || s.ChallengeSolveRate != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestRecord_NilEventIgnored(t *testing.T) {
	r := newRecorder()
	r.Record(context.Background(), nil)

	s, err := r.Summarize(context.Background(), "nike", 1)
	if err != nil || s.Attempts != 0 {
		t.Errorf("expected empty summary, got %+v (%v)", s, err)
	}
}

func TestSummarize_WindowExcludesOldEvents(t *testing.T) {
	r := newRecorder()
	ctx := context.Background()

	old := domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultSuccess, domain.ReasonNone))
	old.RecordedAt = time.Now().AddDate(0, 0, -30)
	r.Record(ctx, old)
	r.Record(ctx, domain.NewTerminalEvent(finishedTask("nike", domain.TaskResultFailed, domain.ReasonTransientError)))

	s, err := r.Summarize(ctx, "nike", 7)
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if s.Attempts != 1 || s.Failures != 1 {
		t.Errorf("expected only the recent event, got %+v", s)
	}
}
