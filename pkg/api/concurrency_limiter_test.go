package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueryLimiter_AcquireRelease(t *testing.T) {
	limiter := NewQueryLimiter(2, time.Second)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Expected first acquisition to succeed, got %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Expected second acquisition to succeed, got %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(short); err == nil {
		t.Fatal("Expected third acquisition to fail while both slots are held")
	}

	limiter.Release()
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Expected acquisition after release to succeed, got %v", err)
	}
	limiter.Release()
	limiter.Release()

	if stats := limiter.Stats(); stats.InFlight != 0 {
		t.Errorf("Expected no queries in flight, got %d", stats.InFlight)
	}
}

func TestQueryLimiter_WaitTimeout(t *testing.T) {
	limiter := NewQueryLimiter(1, 20*time.Millisecond)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer limiter.Release()

	err := limiter.Acquire(context.Background())
	if !errors.Is(err, ErrLimiterTimeout) {
		t.Fatalf("Expected ErrLimiterTimeout, got %v", err)
	}
	if stats := limiter.Stats(); stats.Timeouts != 1 {
		t.Errorf("Expected 1 timeout, got %d", stats.Timeouts)
	}
}

func TestQueryLimiter_CallerDeadline(t *testing.T) {
	limiter := NewQueryLimiter(1, time.Second)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
	if errors.Is(err, ErrLimiterTimeout) {
		t.Errorf("Expected caller deadline not to be reported as a limiter timeout, got %v", err)
	}
}

func TestQueryLimiter_Cancelled(t *testing.T) {
	limiter := NewQueryLimiter(1, 0)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestQueryLimiter_NeverExceedsMax(t *testing.T) {
	const maxInFlight = 3
	limiter := NewQueryLimiter(maxInFlight, 2*time.Second)

	var current, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
			limiter.Release()
		}()
	}
	wg.Wait()

	if peak > maxInFlight {
		t.Errorf("Expected at most %d concurrent queries, got %d", maxInFlight, peak)
	}
	stats := limiter.Stats()
	if stats.Acquired != 20 || stats.Released != 20 {
		t.Errorf("Expected 20 acquires and releases, got %d/%d", stats.Acquired, stats.Released)
	}
}

func TestQueryLimiter_ExtraReleaseIgnored(t *testing.T) {
	limiter := NewQueryLimiter(0, time.Second)
	limiter.Release()

	stats := limiter.Stats()
	if stats.MaxInFlight != 1 {
		t.Errorf("Expected MaxInFlight=1 for non-positive input, got %d", stats.MaxInFlight)
	}
	if stats.InFlight != 0 || stats.Released != 0 {
		t.Errorf("Expected unmatched release to be ignored, got %+v", stats)
	}
}
