// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry implements a bounded exponential backoff policy.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Policy decides how often and how long to wait between attempts.
// The zero value makes a single attempt.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt. Each later wait doubles.
	BaseDelay time.Duration

	// MaxDelay caps a single wait. Zero means no cap.
	MaxDelay time.Duration

	// Jitter randomizes each wait by up to ±Jitter of its length.
	Jitter float64

	// Retryable reports whether err deserves another attempt. Nil retries
	// every error.
	Retryable func(err error) bool

	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// FromConfig builds a Policy from the experiment retry settings.
func FromConfig(cfg types.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
		Jitter:      cfg.Jitter,
	}
}

// Delay returns the wait after the given failed attempt (1-based), before
// jitter: BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if p.MaxDelay > 0 && (d > p.MaxDelay || d < 0) {
		d = p.MaxDelay
	}
	return d
}

func (p Policy) jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	spread := float64(d) * p.Jitter
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. It returns the number of attempts made and the
// last error. A cancelled context during a wait returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return attempt, lastErr
		}
		if attempt >= maxAttempts {
			return attempt, fmt.Errorf("after %d attempts: %w", attempt, lastErr)
		}

		delay := p.jittered(p.Delay(attempt))
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}
