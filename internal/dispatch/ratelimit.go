package dispatch

import (
	"context"
	"sync"
	"time"
)

// DefaultMinInterval is the default minimum spacing between backend dispatches.
const DefaultMinInterval = 10 * time.Second

// RateLimiter enforces a single global minimum interval between outbound
// backend calls across all chats. This is coarse throttling protecting a
// shared, quota-limited backend, not fair per-chat QoS.
type RateLimiter struct {
	mu           sync.Mutex
	minInterval  time.Duration
	lastDispatch time.Time
}

// NewRateLimiter creates a limiter with the given minimum interval.
// A non-positive interval falls back to DefaultMinInterval.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &RateLimiter{minInterval: minInterval}
}

// Acquire blocks until at least the minimum interval has elapsed since
// the previous dispatch, then records the current time as the new
// dispatch timestamp. It returns early with the context error if the
// context is cancelled while waiting.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	r.mu.Lock()
	wait := r.minInterval - time.Since(r.lastDispatch)
	if wait <= 0 || r.lastDispatch.IsZero() {
		r.lastDispatch = time.Now()
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	r.mu.Lock()
	r.lastDispatch = time.Now()
	r.mu.Unlock()
	return nil
}
