package apierr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig holds retry parameters for exponential backoff.
//
// Zero or negative fields are normalized before use: MaxRetries < 0
// becomes 0 (single attempt), BaseDelay <= 0 becomes 1ms, and
// MaxDelay <= 0 becomes BaseDelay.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// delayFor returns the backoff delay before the given attempt.
// Attempt 1 waits BaseDelay; each further attempt doubles it up to MaxDelay.
func (c RetryConfig) delayFor(attempt int) time.Duration {
	d := c.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return min(d, c.MaxDelay)
}

// IsRetryable reports whether a classified error is worth retrying.
// Rate limits and timeouts are transient; auth failures, exhausted
// quotas, malformed requests, and cancellation are not. Errors the
// provider adapters did not classify are treated as permanent here;
// adapters layer their own transport-level checks on top.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout)
}

// RetryWithBackoff runs fn up to cfg.MaxRetries+1 times, sleeping with
// exponential backoff between attempts. An error for which shouldRetry
// returns false stops the loop immediately; context cancellation
// interrupts the backoff sleep.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	cfg = cfg.normalized()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, cfg.delayFor(attempt)); err != nil {
				return zero, err
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
