// Package ratelimit bounds outbound call volume per provider with a fixed
// window budget: at most MaxCalls within each Period, counted from the first
// call of the window. A call that would exceed the budget suspends the caller
// until the window resets; calls are never dropped.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is safe for concurrent use; one instance is shared by every
// in-flight fetch against the same provider.
type Limiter struct {
	maxCalls int
	period   time.Duration

	mu          sync.Mutex
	windowStart time.Time
	consumed    int

	now func() time.Time // test hook
}

// New builds a limiter allowing maxCalls per period. maxCalls <= 0 disables
// limiting (Acquire returns immediately).
func New(maxCalls int, period time.Duration) *Limiter {
	if period <= 0 {
		period = time.Minute
	}
	return &Limiter{maxCalls: maxCalls, period: period, now: time.Now}
}

// Acquire blocks until a call slot is available under the budget, then
// consumes it. It only delays, never fails, except when ctx is canceled
// while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.maxCalls <= 0 {
		return ctx.Err()
	}
	for {
		wait, ok := l.tryConsume()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryConsume takes a slot if one is free, otherwise returns how long until
// the current window resets.
func (l *Limiter) tryConsume() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.period {
		l.windowStart = now
		l.consumed = 0
	}
	if l.consumed < l.maxCalls {
		l.consumed++
		return 0, true
	}
	return l.windowStart.Add(l.period).Sub(now), false
}

// Remaining reports the unconsumed slots in the current window. Mostly for
// logging and tests.
func (l *Limiter) Remaining() int {
	if l == nil || l.maxCalls <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.period {
		return l.maxCalls
	}
	return l.maxCalls - l.consumed
}
