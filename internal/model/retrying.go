// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/reliability-bench/internal/retry"
)

// Generation is the outcome of one logical call, possibly spanning several
// attempts.
type Generation struct {
	Text     string
	Attempts int
}

// Retrying wraps a Client with a retry policy and a shared rate limiter.
// It is safe for concurrent use when the wrapped client is.
type Retrying struct {
	client  Client
	policy  retry.Policy
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRetrying wraps c. rpm caps calls per minute across all callers; zero or
// negative disables the limit. A nil logger discards retry diagnostics.
func NewRetrying(c Client, policy retry.Policy, rpm int, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Every(time.Minute / time.Duration(rpm))
	}
	return &Retrying{
		client:  c,
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Generate calls the model, retrying transient failures under the policy.
// The returned Generation carries the attempt count even on error. Errors
// keep their ErrTransient or ErrFatal mark. Unclassified errors are treated
// as transient so a single odd response cannot abort the run.
func (r *Retrying) Generate(ctx context.Context, prompt string, temperature float64) (Generation, error) {
	var text string
	policy := r.policy
	policy.Retryable = func(err error) bool { return !IsFatal(err) }
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.logger.Warn("model call failed, retrying",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay", delay,
			"error", err)
	}

	attempts, err := policy.Do(ctx, func(ctx context.Context) error {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := r.client.Call(ctx, prompt, temperature)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	gen := Generation{Text: text, Attempts: attempts}
	if err == nil {
		return gen, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return gen, err
	}
	if !IsFatal(err) {
		err = Transient(err)
	}
	return gen, err
}
