package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newTestLimiter(capacity int, perSec float64) *Limiter {
	return New(map[string]BucketConfig{
		EndpointReddit: {Capacity: capacity, PerSecond: perSec},
	})
}

func TestBurstWithinCapacityNeverBlocks(t *testing.T) {
	l := newTestLimiter(5, 0.001) // refill slow enough to not matter
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Acquire(context.Background(), EndpointReddit); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("full bucket should not block, took %v", elapsed)
	}
}

func TestCapacityPlusOneWaitsForRefill(t *testing.T) {
	l := newTestLimiter(2, 20) // one token every 50ms
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx, EndpointReddit); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	start := time.Now()
	if err := l.Acquire(ctx, EndpointReddit); err != nil {
		t.Fatalf("acquire over capacity: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("expected a wait for partial refill, got %v", elapsed)
	}
}

func TestIndependentBuckets(t *testing.T) {
	l := New(map[string]BucketConfig{
		EndpointTwitterAPI:   {Capacity: 1, PerSecond: 0.001},
		EndpointTwitterMedia: {Capacity: 1, PerSecond: 0.001},
	})
	ctx := context.Background()
	if err := l.Acquire(ctx, EndpointTwitterAPI); err != nil {
		t.Fatalf("api acquire: %v", err)
	}
	// Draining the api bucket must not affect the media bucket.
	start := time.Now()
	if err := l.Acquire(ctx, EndpointTwitterMedia); err != nil {
		t.Fatalf("media acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("media bucket should be independent, took %v", elapsed)
	}
}

func TestCancelledWaitReturnsError(t *testing.T) {
	l := newTestLimiter(1, 0.001)
	ctx := context.Background()
	if err := l.Acquire(ctx, EndpointReddit); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if err := l.Acquire(waitCtx, EndpointReddit); err == nil {
		t.Fatalf("expected error on cancelled wait")
	}
}

func TestUnknownEndpointPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unconfigured endpoint")
		}
	}()
	newTestLimiter(1, 1).Acquire(context.Background(), "nope")
}
