package domain

import "testing"

func TestReasonIsTaskRetryable(t *testing.T) {
	if !ReasonResourceUnavailable.IsTaskRetryable() {
		t.Error("RESOURCE_UNAVAILABLE must allow another task attempt")
	}

	terminal := []ReasonCode{
		ReasonNone,
		ReasonTransientError,
		ReasonChallengeFailed,
		ReasonChallengeTimeout,
		ReasonQueueTimeout,
		ReasonNotFound,
		ReasonFatalError,
		ReasonBackpressure,
		ReasonTimeout,
		ReasonCancelled,
	}
	for _, r := range terminal {
		if r.IsTaskRetryable() {
			t.Errorf("%q must not allow another task attempt", r)
		}
	}
}
