// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend calls any OpenAI-compatible chat completions endpoint.
type OpenAIBackend struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIBackend builds a chat completions client. An empty baseURL uses
// the public OpenAI endpoint.
func NewOpenAIBackend(apiKey, modelName string, maxTokens int, baseURL string, httpClient *http.Client) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIBackend{
		client:    openai.NewClientWithConfig(cfg),
		model:     modelName,
		maxTokens: maxTokens,
	}
}

// Call sends prompt as a single user message.
func (o *OpenAIBackend) Call(ctx context.Context, prompt string, temperature float64) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(temperature),
	}
	// The client drops a zero temperature from the request, which the server
	// reads as its default of 1.
	if temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	if o.maxTokens > 0 {
		req.MaxCompletionTokens = o.maxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAI(fmt.Errorf("calling OpenAI API: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", Transient(errors.New("OpenAI returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAI(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return classifyHTTP(err)
}
