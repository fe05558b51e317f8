/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry re-runs an operation when its error is classified as
// retryable.
//
// The agents do not retry transient API failures. They retry in two narrow
// cases: a write rejected because its version token went stale, and a
// randomly drawn name that turned out to be taken. Both are resolved by
// re-reading or re-drawing, so the default configuration allows a single
// extra attempt with no delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config controls how many extra attempts Do makes.
type Config struct {
	// MaxRetries is the number of attempts after the first. 0 disables retry.
	MaxRetries int
	// Delay is the pause between attempts.
	Delay time.Duration
}

// Validate checks that the configuration has valid values.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if c.Delay < 0 {
		return errors.New("delay cannot be negative")
	}
	return nil
}

// Once is one extra attempt without delay.
func Once() Config {
	return Config{MaxRetries: 1}
}

// ErrExhausted is wrapped by the error Do returns when every attempt failed
// with a retryable error.
var ErrExhausted = errors.New("retries exhausted")

// Do calls fn until it succeeds, returns a non-retryable error, or the
// configured attempts run out. The attempt number (starting at 0) is passed
// to fn so it can re-read state or re-draw names.
func Do[T any](ctx context.Context, cfg Config, operation string, isRetryable func(error) bool, fn func(attempt int) (T, error)) (T, error) {
	var (
		result  T
		lastErr error
	)

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, lastErr = fn(attempt)
		if lastErr == nil {
			return result, nil
		}
		if !isRetryable(lastErr) {
			return result, lastErr
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("error", lastErr.Error()).
			Warn("Retryable failure, trying again")

		if cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}
	}

	return result, fmt.Errorf("%s: %w after %d retries: %w", operation, ErrExhausted, cfg.MaxRetries, lastErr)
}
