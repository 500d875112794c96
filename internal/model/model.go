// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model sends rendered prompts to a language model API.
//
// Every backend reports failures in one of two kinds. Transient errors
// (rate limits, timeouts, 5xx) are retried by Retrying and finally recorded
// against the condition. Fatal errors (bad credentials, malformed requests)
// abort the whole run.
package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTransient marks a call failure that may succeed if retried.
	ErrTransient = errors.New("transient model error")

	// ErrFatal marks a call failure that retrying cannot fix.
	ErrFatal = errors.New("fatal model error")
)

// Client is one model API backend. Call returns the raw response text or an
// error wrapping ErrTransient or ErrFatal.
type Client interface {
	Call(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Fatal marks err as not retryable.
func Fatal(err error) error {
	if err == nil || errors.Is(err, ErrFatal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsFatal reports whether err is marked fatal.
func IsFatal(err error) bool { return errors.Is(err, ErrFatal) }
