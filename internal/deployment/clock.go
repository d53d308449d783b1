package deployment

import (
	"context"
	"time"
)

// Clock abstracts time for the polling loop.
type Clock interface {
	Now() time.Time
	// Sleep waits for duration or until the context ends, returning the context error in the latter case.
	Sleep(executionContext context.Context, duration time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for duration or context cancellation.
func (SystemClock) Sleep(executionContext context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}
