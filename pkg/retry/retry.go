// Package retry re-runs an operation while its error matches a predicate.
//
// The twitter client uses it to re-send a request after the rate limit window
// has waited out exhausted quota:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return c.attempt(ctx, ...)
//	}, &retry.Config{RetryIf: errors.IsRateLimit, Op: op, Logger: c.logger})
//
// Nothing else is retried. Auth, transport and storage errors return on the
// first attempt.
package retry

import (
	"context"
	"fmt"
	"time"

	"twscraper/pkg/errors"
	"twscraper/pkg/logger"
)

// Operation is one attempt
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Delay is slept between attempts. Zero re-runs immediately, which is right when
	// the operation does its own waiting.
	Delay time.Duration
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error)
	// Op names the operation in the error returned when ctx ends between attempts
	Op string
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig retries rate limit signals without limit
func DefaultConfig() *Config {
	return &Config{
		RetryIf: errors.IsRateLimit,
		Logger:  logger.GetLogger(),
	}
}

// Do executes op until it succeeds, fails with an error RetryIf rejects, runs out
// of attempts, or ctx is done
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = errors.IsRateLimit
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if cfg.Logger != nil {
			cfg.Logger.DebugWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     cfg.Delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, cfg.Delay); err != nil {
			return errors.NewTransportError(cfg.Op, "interrupted while waiting to retry", 0, err)
		}
	}
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
