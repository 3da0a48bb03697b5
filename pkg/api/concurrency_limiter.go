package api

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"kwcluster/pkg/logger"
)

// ErrLimiterTimeout is returned when no query slot frees up in time.
var ErrLimiterTimeout = errors.New("timed out waiting for a query slot")

// QueryLimiter caps the number of in-flight remote queries. The dashboard
// serves requests concurrently and every /api/fetch spends API quota, so
// slots are handed out with lock-free CAS on a counter.
type QueryLimiter struct {
	maxInFlight int64
	inFlight    int64
	waitTimeout time.Duration
	log         *logger.Logger

	acquired atomic.Int64
	released atomic.Int64
	timeouts atomic.Int64
}

// LimiterStats is a point-in-time snapshot of a QueryLimiter.
type LimiterStats struct {
	MaxInFlight int64   `json:"max_in_flight"`
	InFlight    int64   `json:"in_flight"`
	Acquired    int64   `json:"acquired"`
	Released    int64   `json:"released"`
	Timeouts    int64   `json:"timeouts"`
	Utilization float64 `json:"utilization"`
}

// NewQueryLimiter returns a limiter allowing maxInFlight queries at once.
// A non-positive maxInFlight is treated as 1.
func NewQueryLimiter(maxInFlight int, waitTimeout time.Duration) *QueryLimiter {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &QueryLimiter{
		maxInFlight: int64(maxInFlight),
		waitTimeout: waitTimeout,
		log:         logger.GetLogger().WithComponent("query_limiter"),
	}
}

// Acquire blocks until a slot is free, ctx ends or the wait timeout passes.
// Every successful Acquire must be paired with Release.
func (l *QueryLimiter) Acquire(ctx context.Context) error {
	if l.tryAcquire() {
		return nil
	}

	wait := ctx
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	backoff := time.Millisecond
	const maxBackoff = 50 * time.Millisecond
	timer := time.NewTimer(backoff)
	defer timer.Stop()

	for {
		select {
		case <-wait.Done():
			l.timeouts.Add(1)
			l.log.WithFields(map[string]interface{}{
				"in_flight":     atomic.LoadInt64(&l.inFlight),
				"max_in_flight": l.maxInFlight,
			}).Debug("Gave up waiting for a query slot")
			// The caller's own cancellation or deadline wins over the wait timeout.
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("%w: %d queries in flight", ErrLimiterTimeout, atomic.LoadInt64(&l.inFlight))
		case <-timer.C:
			if l.tryAcquire() {
				return nil
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			timer.Reset(backoff)
		}
	}
}

func (l *QueryLimiter) tryAcquire() bool {
	for {
		cur := atomic.LoadInt64(&l.inFlight)
		if cur >= l.maxInFlight {
			return false
		}
		if atomic.CompareAndSwapInt64(&l.inFlight, cur, cur+1) {
			l.acquired.Add(1)
			return true
		}
	}
}

// Release frees a slot. Releasing more than was acquired is a no-op.
func (l *QueryLimiter) Release() {
	for {
		cur := atomic.LoadInt64(&l.inFlight)
		if cur <= 0 {
			l.log.Warn("Release called without a matching Acquire")
			return
		}
		if atomic.CompareAndSwapInt64(&l.inFlight, cur, cur-1) {
			l.released.Add(1)
			return
		}
	}
}

// Stats returns counters for diagnostics.
func (l *QueryLimiter) Stats() LimiterStats {
	inFlight := atomic.LoadInt64(&l.inFlight)
	return LimiterStats{
		MaxInFlight: l.maxInFlight,
		InFlight:    inFlight,
		Acquired:    l.acquired.Load(),
		Released:    l.released.Load(),
		Timeouts:    l.timeouts.Load(),
		Utilization: float64(inFlight) / float64(l.maxInFlight),
	}
}
