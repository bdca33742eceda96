// Package retry runs an operation again after failures with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aatumaykin/anisette/internal/logger"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 200 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
)

// Config represents retry configuration.
type Config struct {
	MaxAttempts    int           // Maximum number of attempts (default: 3)
	InitialBackoff time.Duration // Initial backoff duration (default: 200ms)
	MaxBackoff     time.Duration // Maximum backoff duration (default: 5s)

	// Retryable decides whether an error is worth another attempt (default: IsRetryable)
	Retryable func(error) bool
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultInitialDelay
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxDelay
	}
	if c.Retryable == nil {
		c.Retryable = IsRetryable
	}
	return c
}

// Do executes fn with retry logic.
// It returns the result of fn or the last error if all attempts fail.
// Context cancellation is checked between attempts.
func Do[T any](ctx context.Context, cfg Config, log *logger.Logger, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				log.DebugCtx(ctx, "retry succeeded",
					logger.Field{Key: "attempt", Value: attempt + 1})
			}
			return result, nil
		}

		lastErr = err

		if !cfg.Retryable(err) {
			return zero, err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		backoff := calculateBackoff(attempt, cfg.InitialBackoff, cfg.MaxBackoff)
		log.WarnCtx(ctx, "attempt failed, retrying",
			logger.Field{Key: "attempt", Value: attempt + 1},
			logger.Field{Key: "max_attempts", Value: cfg.MaxAttempts},
			logger.Field{Key: "backoff", Value: backoff.String()},
			logger.Field{Key: "error", Value: err.Error()})

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

// IsRetryable reports whether err may succeed on another attempt.
// Cancellation is final; everything else is retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// calculateBackoff calculates the backoff duration for a given attempt.
// Uses exponential backoff: 2^attempt * initial
// Capped at maxBackoff if the result exceeds it.
func calculateBackoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * initial
	if backoff > max || backoff <= 0 {
		return max
	}
	return backoff
}
