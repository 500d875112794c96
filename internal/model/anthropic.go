// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/reliability-bench/internal/httputil"
)

// anthropicAPIURL is the Messages API endpoint. Package-level var for test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicBackend calls the Anthropic Messages API over plain HTTP.
type AnthropicBackend struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Client    *http.Client
}

// anthropicRequest is the request body for the Messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response body from the Messages API.
type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Call sends prompt as a single user message.
func (c *AnthropicBackend) Call(ctx context.Context, prompt string, temperature float64) (string, error) {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	reqBody := anthropicRequest{
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", Fatal(fmt.Errorf("marshaling request: %w", err))
	}

	url := anthropicAPIURL
	if c.BaseURL != "" {
		url = strings.TrimRight(c.BaseURL, "/") + "/v1/messages"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", Fatal(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", classifyHTTP(fmt.Errorf("calling Anthropic API: %w", err))
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse("Anthropic", resp); err != nil {
		return "", classifyHTTP(err)
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return "", Transient(fmt.Errorf("decoding Anthropic response: %w", err))
	}

	var parts []string
	for _, block := range aResp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", Transient(errors.New("no text content in Anthropic API response"))
	}
	return strings.Join(parts, ""), nil
}

// classifyHTTP marks an error from a raw HTTP exchange.
func classifyHTTP(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if httputil.IsTransient(err) {
		return Transient(err)
	}
	return Fatal(err)
}
