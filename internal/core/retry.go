package core

import (
	"context"
	"fmt"
	"time"
)

// SleepFunc waits for d, returning early with the context error if ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Attempt performs a single try of an operation. attempt is 1-based.
type Attempt func(ctx context.Context, attempt int) (Payload, error)

// RetryPolicy retries a failing operation with linear backoff: the wait after
// attempt k is BaseDelay*k. Every error is treated as retryable.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       SleepFunc
}

// NewRetryPolicy creates a retry policy using a real timer for backoff
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Sleep:       sleepWithContext,
	}
}

// Backoff returns the wait that follows the given failed attempt
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt)
}

// Do runs op until it succeeds or MaxAttempts is reached. The first attempt is
// always made, even if ctx is already done.
func (p RetryPolicy) Do(ctx context.Context, item WorkItem, op Attempt) ItemResult {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		payload, err := op(ctx, attempt)
		if err == nil {
			return ItemResult{Item: item, Payload: payload, Attempts: attempt}
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		if err := sleep(ctx, p.Backoff(attempt)); err != nil {
			return ItemResult{
				Item:     item,
				Err:      fmt.Errorf("retry interrupted after %d attempts: %v: %w", attempt, lastErr, err),
				Attempts: attempt,
			}
		}
	}

	return ItemResult{
		Item:     item,
		Err:      &ExhaustedRetriesError{Attempts: maxAttempts, Last: lastErr},
		Attempts: maxAttempts,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
