// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil classifies HTTP failures from model providers.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// maxBodyExcerpt bounds how much of an error body is kept in a StatusError.
const maxBodyExcerpt = 512

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// CheckResponse returns a *StatusError for any non-2xx response. The body is
// read (bounded) into the error; the caller still closes it.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
	return &StatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// TransientStatus reports whether an HTTP status code is worth retrying:
// 408, 429 and every 5xx.
func TransientStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500 && code <= 599:
		return true
	}
	return false
}

// IsTransient reports whether err looks like a temporary failure: a
// transient status, a timeout, or a dropped connection. Context
// cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return TransientStatus(se.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	return false
}
