package scan

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// limiter is the admission gate bounding in-flight probes. It accepts
// any positive capacity; the 1..MaxConcurrency range is enforced by
// Config validation.
type limiter struct {
	sem *semaphore.Weighted
}

func newLimiter(capacity int) *limiter {
	return &limiter{sem: semaphore.NewWeighted(int64(capacity))}
}

// acquire blocks until a slot frees or ctx is cancelled.
func (l *limiter) acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *limiter) release() {
	l.sem.Release(1)
}
