// Package retry provides a bounded exponential backoff policy and a generic
// wrapper for retrying transient upstream failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"
)

// Policy describes how an operation is retried: attempt bound, exponential
// delay growth from BaseDelay capped at MaxDelay, and a random jitter
// fraction added to each delay.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	JitterFraction float64
}

// DefaultPolicy is the baseline budget for metadata enrichment calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.5,
	}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the backoff duration before the given 1-based attempt's
// retry, including jitter.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base << uint(attempt-1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.JitterFraction > 0 {
		jitter := time.Duration(rand.Float64() * p.JitterFraction * float64(delay))
		delay += jitter
	}
	return delay
}

// Do invokes op until it succeeds, the error is non-retriable, the attempt
// budget is exhausted, or ctx is cancelled. It sleeps the policy delay
// between attempts.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	attempts := policy.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsRetriable(err) || attempt == attempts {
			if attempt > 1 {
				return fmt.Errorf("after %d attempts: %w", attempt, err)
			}
			return err
		}
		lastErr = err
		if err := Sleep(ctx, policy.Delay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

// Sleep blocks for d, returning early with the context error if ctx is
// cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, timeouts, connection errors,
// upstream 5xx).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "429") || strings.Contains(message, "rate limit") {
		return true
	}
	for _, code := range []string{"502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	transientTokens := []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
		"unavailable",
	}
	for _, token := range transientTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
