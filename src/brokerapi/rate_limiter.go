package brokerapi

import (
	"context"
	"sync"
	"time"
)

// RateLimiter admits at most maxCalls calls in any sliding window of length period.
// Acquirers are served one at a time; a caller that has to wait keeps its place in line
// until its slot frees up.
type RateLimiter struct {
	maxCalls int
	period   time.Duration

	gate  chan struct{}
	mu    sync.Mutex
	calls []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func (r *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-r.period)
	i := 0
	for i < len(r.calls) && !r.calls[i].After(cutoff) {
		i++
	}

	r.calls = r.calls[i:]
}

// Acquire blocks until a call may be made and records it. It returns ctx.Err() without
// recording anything if the context ends first.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	select {
	case r.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-r.gate }()

	for {
		now := r.now()

		r.mu.Lock()
		r.evict(now)
		if len(r.calls) < r.maxCalls {
			r.calls = append(r.calls, now)
			r.mu.Unlock()
			return nil
		}

		wait := r.calls[0].Add(r.period).Sub(now)
		r.mu.Unlock()

		if wait <= 0 {
			continue
		}

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// RemainingCalls reports how many calls could be admitted right now without waiting.
func (r *RateLimiter) RemainingCalls() int {
	cutoff := r.now().Add(-r.period)

	r.mu.Lock()
	defer r.mu.Unlock()

	active := 0
	for _, t := range r.calls {
		if t.After(cutoff) {
			active++
		}
	}

	if remaining := r.maxCalls - active; remaining > 0 {
		return remaining
	}

	return 0
}

func (r *RateLimiter) MaxCalls() int {
	return r.maxCalls
}

func (r *RateLimiter) Period() time.Duration {
	return r.period
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func NewRateLimiter(maxCalls int, period time.Duration) *RateLimiter {
	if maxCalls < 1 {
		maxCalls = 1
	}

	return &RateLimiter{
		maxCalls: maxCalls,
		period:   period,
		gate:     make(chan struct{}, 1),
		calls:    make([]time.Time, 0, maxCalls),
		now:      time.Now,
		sleep:    sleepContext,
	}
}
