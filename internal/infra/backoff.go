package infra

import (
	"context"
	"time"
)

const (
	baseDelay = 1 * time.Second
	maxDelay  = 60 * time.Second
)

// CalculateBackoff returns baseDelay * 2^retryCount, capped at maxDelay.
// A negative retryCount returns baseDelay.
func CalculateBackoff(retryCount int) time.Duration {
	if retryCount < 0 {
		return baseDelay
	}
	// 2^30 seconds is far beyond maxDelay; stop shifting early.
	if retryCount > 30 {
		return maxDelay
	}

	backoff := baseDelay * time.Duration(1<<retryCount)
	if backoff > maxDelay {
		return maxDelay
	}
	return backoff
}

// Sleeper waits for a duration. clockwork.Clock satisfies it.
type Sleeper interface {
	After(d time.Duration) <-chan time.Time
}

// WaitBackoff blocks for CalculateBackoff(retryCount) or until ctx is done.
func WaitBackoff(ctx context.Context, clock Sleeper, retryCount int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(CalculateBackoff(retryCount)):
		return nil
	}
}
