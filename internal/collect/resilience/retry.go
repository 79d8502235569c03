// Package resilience wraps the collector's two synchronous external
// collaborator calls (descriptor read, version-range resolve) with
// exponential-backoff retry: both are opaque synchronous steps that may
// perform blocking I/O and therefore may transiently fail.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryPolicy configures WithRetry's backoff behavior.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries).
	MaxRetries int

	// BaseDelay is the initial delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential delay between retries; jitter, when
	// enabled, is added on top of the capped value.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff factor (2.0 is typical).
	Multiplier float64

	// Jitter adds up to 10% random jitter to each delay after the first
	// (BaseDelay itself is used as is), to avoid
	// multiple queued items retrying a flaky repository in lockstep.
	Jitter bool

	// Logger receives retry/backoff events. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultRetryPolicy returns the collector's default backoff: 2 retries,
// 100ms base delay, 2s cap, exponential with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// WithRetry runs operation, retrying on a non-nil error according to
// policy. Context cancellation is respected: if ctx is cancelled during a
// retry delay, WithRetry returns ctx.Err() immediately.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, operationName string, operation func() (T, error)) (T, error) {
	logger := policy.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastResult T
	var lastErr error
	delay := policy.BaseDelay

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		result, err := operation()
		if err == nil {
			if attempt > 0 {
				logger.Info("collaborator call succeeded after retry", "operation", operationName, "attempt", attempt+1)
			}
			return result, nil
		}

		lastResult, lastErr = result, err

		if attempt >= policy.MaxRetries {
			logger.Warn("collaborator call failed after all retries", "operation", operationName, "max_retries", policy.MaxRetries, "error", err)
			break
		}

		logger.Debug("collaborator call failed, retrying", "operation", operationName, "attempt", attempt+1, "delay", delay, "error", err)

		if !waitWithContext(ctx, delay) {
			var zero T
			return zero, ctx.Err()
		}
		delay = nextDelay(delay, policy)
	}

	return lastResult, fmt.Errorf("%s failed after %d attempts: %w", operationName, policy.MaxRetries+1, lastErr)
}

func waitWithContext(ctx context.Context, delay time.Duration) bool {
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func nextDelay(current time.Duration, policy RetryPolicy) time.Duration {
	next := time.Duration(float64(current) * policy.Multiplier)
	if next > policy.MaxDelay {
		next = policy.MaxDelay
	}
	if policy.Jitter {
		next += time.Duration(float64(next) * 0.1 * rand.Float64())
	}
	return next
}
