// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicBackendCall(t *testing.T) {
	var got anthropicRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"CONFIDENCE: 90\nANSWER: 42"}]}`))
	}))
	defer ts.Close()

	orig := anthropicAPIURL
	anthropicAPIURL = ts.URL
	defer func() { anthropicAPIURL = orig }()

	b := &AnthropicBackend{APIKey: "test-key", Model: "claude-test", MaxTokens: 256, Client: ts.Client()}
	text, err := b.Call(context.Background(), "What is 6*7?", 0)
	require.NoError(t, err)
	assert.Equal(t, "CONFIDENCE: 90\nANSWER: 42", text)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.NotNil(t, got.Temperature, "zero temperature must be sent explicitly")
	assert.Equal(t, 0.0, *got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "What is 6*7?", got.Messages[0].Content)
}

func TestAnthropicBackendBaseURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer ts.Close()

	b := &AnthropicBackend{APIKey: "k", Model: "m", BaseURL: ts.URL + "/"}
	text, err := b.Call(context.Background(), "p", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestAnthropicBackendErrorKinds(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":"rate"}`, transient: true},
		{name: "overloaded", status: 529, body: `{"error":"overloaded"}`, transient: true},
		{name: "server error", status: http.StatusInternalServerError, transient: true},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad key"}`},
		{name: "bad request", status: http.StatusBadRequest},
		{name: "empty content", status: http.StatusOK, body: `{"content":[]}`, transient: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			b := &AnthropicBackend{APIKey: "k", Model: "m", BaseURL: ts.URL}
			_, err := b.Call(context.Background(), "p", 0)
			require.Error(t, err)
			assert.Equal(t, tt.transient, IsTransient(err), "transient")
			assert.Equal(t, !tt.transient, IsFatal(err), "fatal")
		})
	}
}
