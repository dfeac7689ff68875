package collectors

import (
	"context"
	"math"
	"time"
)

// RetryPolicy executes an idempotent operation with exponential backoff.
// It knows nothing about HTTP or any specific provider; classification of
// failures happens through the error taxonomy (IsRetryable).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the backoff the providers were tuned against:
// 3 attempts, 500ms doubling, capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the sleep before attempt n (1-indexed). Attempt 1 never
// sleeps; attempt n waits min(base * mult^(n-1), max).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs op up to MaxAttempts times. A non-retryable error aborts
// immediately; a retryable one sleeps per the backoff schedule and tries
// again. Exhausting every attempt surfaces the last error wrapped in a
// RetryExhaustedError. Context cancellation during a backoff wait unwinds
// with ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if wait := p.Delay(attempt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsRetryable(err) {
			return err
		}
		last = err
	}

	return &RetryExhaustedError{Attempts: attempts, Last: last}
}
