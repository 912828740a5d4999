package reliability

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time for deterministic limiter tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WallClock returns the real-time clock.
func WallClock() Clock { return wallClock{} }

// Limiter enforces a minimum interval between calls to one external tool.
// It is an owned value, one per tool client; there is deliberately no
// package-level limiter state.
type Limiter struct {
	mu          sync.Mutex
	clock       Clock
	minInterval time.Duration
	last        time.Time
}

func NewLimiter(minInterval time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = WallClock()
	}
	return &Limiter{clock: clock, minInterval: minInterval}
}

// Wait blocks until the minimum interval since the previous call has
// elapsed, or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.minInterval <= 0 {
		return nil
	}

	l.mu.Lock()
	now := l.clock.Now()
	var wait time.Duration
	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last); elapsed < l.minInterval {
			wait = l.minInterval - elapsed
		}
	}
	l.last = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return l.clock.Sleep(ctx, wait)
}
