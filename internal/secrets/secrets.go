// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: gemini-api-key, openai-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// providerKeys maps each model provider to its secret file name and
// environment variable fallback.
var providerKeys = map[types.ModelProvider]struct{ file, env string }{
	types.ProviderGemini:    {"gemini-api-key", "GEMINI_API_KEY"},
	types.ProviderOpenAI:    {"openai-api-key", "OPENAI_API_KEY"},
	types.ProviderAnthropic: {"anthropic-api-key", "ANTHROPIC_API_KEY"},
}

// KeyName returns the secret file name for provider.
func KeyName(provider types.ModelProvider) string {
	return providerKeys[provider].file
}

// APIKey resolves the API key for provider: the loaded secret file first,
// then the provider's environment variable. It fails when neither is set so
// the run halts before any model call.
func APIKey(loaded map[string]string, provider types.ModelProvider) (string, error) {
	k, ok := providerKeys[provider]
	if !ok {
		return "", fmt.Errorf("unknown model provider %q", provider)
	}
	if v := loaded[k.file]; v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(k.env)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no API key for %s: write .secrets/%s or set %s", provider, k.file, k.env)
}
