// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// New builds the backend named by cfg.Provider. A missing API key is fatal.
func New(ctx context.Context, cfg types.ModelConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, Fatal(fmt.Errorf("no API key for provider %s", cfg.Provider))
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case types.ProviderGemini:
		g, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.Name, cfg.MaxOutputTokens, cfg.BaseURL, httpClient)
		if err != nil {
			return nil, err
		}
		return g, nil
	case types.ProviderOpenAI:
		return NewOpenAIBackend(cfg.APIKey, cfg.Name, cfg.MaxOutputTokens, cfg.BaseURL, httpClient), nil
	case types.ProviderAnthropic:
		return &AnthropicBackend{
			APIKey:    cfg.APIKey,
			Model:     cfg.Name,
			MaxTokens: cfg.MaxOutputTokens,
			BaseURL:   cfg.BaseURL,
			Client:    httpClient,
		}, nil
	}
	return nil, Fatal(fmt.Errorf("unknown model provider %q", cfg.Provider))
}
