// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/reliability-bench/internal/httputil"
)

// GeminiBackend calls the Gemini API through the genai SDK.
type GeminiBackend struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
}

// NewGeminiBackend builds a Gemini API client. baseURL is optional and only
// used to point the SDK at a test server.
func NewGeminiBackend(ctx context.Context, apiKey, modelName string, maxOutputTokens int, baseURL string, httpClient *http.Client) (*GeminiBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, Fatal(fmt.Errorf("creating genai client: %w", err))
	}
	return &GeminiBackend{
		client:          client,
		model:           modelName,
		maxOutputTokens: int32(maxOutputTokens),
	}, nil
}

// Call generates a single candidate for prompt.
func (g *GeminiBackend) Call(ctx context.Context, prompt string, temperature float64) (string, error) {
	temp := float32(temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if g.maxOutputTokens > 0 {
		cfg.MaxOutputTokens = g.maxOutputTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", classifyGemini(fmt.Errorf("calling Gemini API: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", Transient(errors.New("no candidates returned"))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", Transient(errors.New("no text in Gemini response"))
	}
	return b.String(), nil
}

// classifyGemini maps SDK errors onto the two error kinds using the HTTP
// status carried by genai.APIError.
func classifyGemini(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus(apiErrPtr.Code, err)
	}
	return classifyHTTP(err)
}

func classifyStatus(code int, err error) error {
	if httputil.TransientStatus(code) {
		return Transient(err)
	}
	return Fatal(err)
}
