// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

var errFlaky = errors.New("flaky")

func TestDoImmediateSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoFailsThenSucceeds(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errFlaky)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	errFatal := errors.New("bad credentials")
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, errFatal) },
	}
	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errFatal
	})
	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoZeroPolicySingleAttempt(t *testing.T) {
	calls := 0
	attempts, err := Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoContextCancelledDuringWait(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Do(ctx, func(context.Context) error { return errFlaky })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoOnRetry(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		OnRetry: func(_ int, d time.Duration, _ error) {
			delays = append(delays, d)
		},
	}
	_, _ = p.Do(context.Background(), func(context.Context) error { return errFlaky })
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestDelay(t *testing.T) {
	p := Policy{BaseDelay: 5 * time.Second, MaxDelay: 30 * time.Second}
	assert.Equal(t, 5*time.Second, p.Delay(1))
	assert.Equal(t, 10*time.Second, p.Delay(2))
	assert.Equal(t, 20*time.Second, p.Delay(3))
	assert.Equal(t, 30*time.Second, p.Delay(4), "capped at MaxDelay")
}

func TestJitterStaysInRange(t *testing.T) {
	p := Policy{BaseDelay: time.Second, Jitter: 0.25}
	for i := 0; i < 100; i++ {
		d := p.jittered(time.Second)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(types.RetryConfig{MaxAttempts: 3, BaseDelay: 5 * time.Second, Jitter: 0.1})
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 5*time.Second, p.BaseDelay)
	assert.Equal(t, 0.1, p.Jitter)
}
