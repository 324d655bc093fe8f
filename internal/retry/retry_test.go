package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("http 503 from upstream")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoGivesUpAfterBudget(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return errors.New("connection reset by peer")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoDoesNotRetryTerminalErrors(t *testing.T) {
	calls := 0
	terminal := errors.New("video is private")
	err := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Policy{MaxAttempts: 3, BaseDelay: time.Minute}, func(context.Context) error {
		return errors.New("rate limit")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	policy := Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	if d := policy.Delay(1); d != time.Second {
		t.Fatalf("Delay(1) = %s", d)
	}
	if d := policy.Delay(2); d != 2*time.Second {
		t.Fatalf("Delay(2) = %s", d)
	}
	if d := policy.Delay(4); d != 3*time.Second {
		t.Fatalf("Delay(4) = %s, want capped at 3s", d)
	}
}

func TestDelayJitterStaysBounded(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Second, JitterFraction: 0.5}
	for i := 0; i < 50; i++ {
		d := policy.Delay(1)
		if d < time.Second || d > 1500*time.Millisecond {
			t.Fatalf("jittered delay %s out of bounds", d)
		}
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("HTTP 429 rate limit exceeded"), true},
		{"gateway", errors.New("http 502 bad gateway"), true},
		{"timeout token", errors.New("request timed out"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"terminal", errors.New("no such video"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Errorf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
