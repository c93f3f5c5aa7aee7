package dispatch

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterFirstAcquireIsImmediate(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(time.Second)

	start := time.Now()
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire returned unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Acquire blocked for %v, want immediate", elapsed)
	}
}

func TestRateLimiterSpacesDispatches(t *testing.T) {
	t.Parallel()

	const interval = 80 * time.Millisecond
	limiter := NewRateLimiter(interval)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire returned unexpected error: %v", err)
	}

	start := time.Now()
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("second Acquire returned unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < interval-5*time.Millisecond {
		t.Errorf("second Acquire waited %v, want at least %v", elapsed, interval)
	}
}

func TestRateLimiterAcquireHonorsContext(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(time.Minute)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire returned unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("Acquire with expiring context = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestRateLimiterDefaultsInterval(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(0)
	if limiter.minInterval != DefaultMinInterval {
		t.Errorf("minInterval = %v, want %v", limiter.minInterval, DefaultMinInterval)
	}
	limiter = NewRateLimiter(-time.Second)
	if limiter.minInterval != DefaultMinInterval {
		t.Errorf("minInterval = %v, want %v", limiter.minInterval, DefaultMinInterval)
	}
}
