// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults(types.DefaultExperimentConfig())
	viper.SetEnvPrefix("RELIABILITY_BENCH")
	viper.AutomaticEnv()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.PromptTypes(), cfg.Prompts)
	assert.Equal(t, []float64{0.0, 0.7}, cfg.Temperatures)
	assert.Equal(t, 5, cfg.Repetitions)
	assert.Equal(t, types.ProviderGemini, cfg.Model.Provider)
	assert.Equal(t, 60*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, types.LogJSONL, cfg.LogBackend)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "reliability-bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`prompts: [direct]
temperatures: [0.3]
log_backend: sqlite
model:
  provider: openai
  name: gpt-4o-mini
retry:
  base_delay: 250ms
`), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	t.Setenv("RELIABILITY_BENCH_REPETITIONS", "2")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []types.PromptType{types.PromptDirect}, cfg.Prompts)
	assert.Equal(t, []float64{0.3}, cfg.Temperatures)
	assert.Equal(t, 2, cfg.Repetitions)
	assert.Equal(t, types.LogSQLite, cfg.LogBackend)
	assert.Equal(t, types.ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 1024, cfg.Model.MaxOutputTokens, "unset keys keep their defaults")
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	resetViper(t)
	viper.Set("prompts", []string{"socratic"})
	viper.Set("repetitions", 0)

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socratic")
	assert.Contains(t, err.Error(), "repetitions")
}
