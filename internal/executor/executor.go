// Package executor wraps a single function call with bounded retries and
// exponential backoff, shared by the aggregator's adapter calls and the
// policy monitor's settlement retries.
package executor

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behaviour. Semantics follow the design: attempts
// 1..N, sleeping initialDelay*factor^(attempt-1) after each failure except
// the last, re-raising the last error on exhaustion.
type Config struct {
	// MaxAttempts is the maximum number of attempts to make (including the
	// initial attempt). Must be at least 1.
	MaxAttempts int

	// InitialDelay is the delay before the first retry; grows exponentially
	// for subsequent retries.
	InitialDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// BackoffFactor is the multiplier applied to the delay on each retry.
	BackoffFactor float64
}

// DefaultConfig returns a retry configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryableFunc is a function that can be retried. A non-nil error means
// the attempt failed.
type RetryableFunc func(ctx context.Context) error

// Classifier tells the executor whether a given error is worth retrying.
// When nil, every error is treated as retryable.
type Classifier func(err error) bool

// Run executes fn up to cfg.MaxAttempts times with exponential backoff and
// jitter between attempts. It respects context cancellation: a cancelled
// context terminates both an in-flight sleep and the retry loop itself.
func Run(ctx context.Context, cfg Config, classify Classifier, fn RetryableFunc) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if classify != nil && !classify(err) {
			log.Debug().Err(err).Int("attempt", attempt).Msg("non-retryable error, aborting retry loop")
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := backoffDelay(cfg, attempt)

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// backoffDelay computes initialDelay*factor^(attempt-1), capped at MaxDelay
// and jittered by ±20% to avoid synchronized retries across callers.
func backoffDelay(cfg Config, attempt int) time.Duration {
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	jitter := time.Duration((rand.Float64()*0.4 - 0.2) * float64(delay))
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return delay
}
