// Package ratelimit spaces out requests to the search backend.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
}

// Feedback is implemented by limiters that adjust to request outcomes.
type Feedback interface {
	RecordSuccess()
	RecordError()
}

// Interval enforces a delay between consecutive Wait calls, drawn from
// [min, max) when the two differ.
type Interval struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	last     time.Time
}

func NewInterval(minDelay, maxDelay time.Duration) *Interval {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Interval{minDelay: minDelay, maxDelay: maxDelay}
}

func (r *Interval) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		if wait := r.delay() - time.Since(r.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	r.last = time.Now()
	return nil
}

func (r *Interval) Delays() (time.Duration, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minDelay, r.maxDelay
}

func (r *Interval) delay() time.Duration {
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}
	return r.minDelay + rand.N(r.maxDelay-r.minDelay)
}

const (
	errorsBeforeBackoff = 3
	successesBeforeEase = 5
	backoffFactor       = 1.5
	easeFactor          = 0.9
	maxMinDelay         = 60 * time.Second
	maxMaxDelay         = 120 * time.Second
)

// Adaptive widens its interval after repeated errors and narrows it back
// towards the configured floor after a run of successes.
type Adaptive struct {
	*Interval
	floor     time.Duration
	errors    int
	successes int
}

func NewAdaptive(minDelay, maxDelay time.Duration) *Adaptive {
	return &Adaptive{
		Interval: NewInterval(minDelay, maxDelay),
		floor:    minDelay,
	}
}

func (a *Adaptive) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errors = 0
	a.successes++
	if a.successes > successesBeforeEase {
		a.minDelay = max(time.Duration(float64(a.minDelay)*easeFactor), a.floor)
		a.maxDelay = max(a.maxDelay, a.minDelay)
		a.successes = 0
	}
}

func (a *Adaptive) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successes = 0
	a.errors++
	if a.errors >= errorsBeforeBackoff {
		a.minDelay = min(time.Duration(float64(a.minDelay)*backoffFactor), maxMinDelay)
		a.maxDelay = min(time.Duration(float64(a.maxDelay)*backoffFactor), maxMaxDelay)
		a.maxDelay = max(a.maxDelay, a.minDelay)
		a.errors = 0
	}
}

// Unlimited never waits.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
