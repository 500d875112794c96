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

const chatCompletionBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-test",
"choices":[{"index":0,"message":{"role":"assistant","content":"CONFIDENCE: 70\nANSWER: yes"},"finish_reason":"stop"}]}`

func TestOpenAIBackendCall(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody))
	}))
	defer ts.Close()

	b := NewOpenAIBackend("test-key", "gpt-test", 128, ts.URL+"/v1", ts.Client())
	text, err := b.Call(context.Background(), "Is every square a rectangle?", 0)
	require.NoError(t, err)
	assert.Equal(t, "CONFIDENCE: 70\nANSWER: yes", text)

	assert.Equal(t, "gpt-test", got["model"])
	temp, ok := got["temperature"].(float64)
	require.True(t, ok, "zero temperature must still be sent")
	assert.Greater(t, temp, 0.0)
	assert.Less(t, temp, 1e-6)
	assert.EqualValues(t, 128, got["max_completion_tokens"])
}

func TestOpenAIBackendErrorKinds(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "unavailable", status: http.StatusServiceUnavailable, transient: true},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "not found", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			}))
			defer ts.Close()

			b := NewOpenAIBackend("k", "gpt-test", 0, ts.URL+"/v1", ts.Client())
			_, err := b.Call(context.Background(), "p", 0.7)
			require.Error(t, err)
			assert.Equal(t, tt.transient, IsTransient(err), "transient")
			assert.Equal(t, !tt.transient, IsFatal(err), "fatal")
		})
	}
}
