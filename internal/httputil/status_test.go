// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, TransientStatus(tt.code))
		})
	}
}

func TestCheckResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ok")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NoError(t, CheckResponse("test", resp))

	resp, err = http.Get(ts.URL + "/busy")
	require.NoError(t, err)
	defer resp.Body.Close()

	err = CheckResponse("test", resp)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, `{"error":"slow down"}`, se.Body)
	assert.Contains(t, err.Error(), "test API returned 429")
	assert.True(t, IsTransient(err))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 503})))
	assert.False(t, IsTransient(&StatusError{StatusCode: 401}))
	assert.False(t, IsTransient(errors.New("decoding response")))
}
