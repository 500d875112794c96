// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// setDefaults registers every experiment key with viper so that config
// files and RELIABILITY_BENCH_* variables can override any of them.
func setDefaults(d types.ExperimentConfig) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("dataset_path", d.DatasetPath)
	viper.SetDefault("results_path", d.ResultsPath)
	viper.SetDefault("parsed_path", d.ParsedPath)
	viper.SetDefault("scores_path", d.ScoresPath)
	viper.SetDefault("report_dir", d.ReportDir)
	viper.SetDefault("annotations_path", d.AnnotationsPath)
	viper.SetDefault("prompts_dir", d.PromptsDir)

	prompts := make([]string, len(d.Prompts))
	for i, p := range d.Prompts {
		prompts[i] = string(p)
	}
	viper.SetDefault("prompts", prompts)
	viper.SetDefault("temperatures", d.Temperatures)
	viper.SetDefault("repetitions", d.Repetitions)
	viper.SetDefault("concurrency", d.Concurrency)
	viper.SetDefault("rate_limit_rpm", d.RateLimitRPM)
	viper.SetDefault("log_backend", string(d.LogBackend))

	viper.SetDefault("model.provider", string(d.Model.Provider))
	viper.SetDefault("model.name", d.Model.Name)
	viper.SetDefault("model.max_output_tokens", d.Model.MaxOutputTokens)
	viper.SetDefault("model.base_url", d.Model.BaseURL)
	viper.SetDefault("model.timeout", d.Model.Timeout)

	viper.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	viper.SetDefault("retry.base_delay", d.Retry.BaseDelay)
	viper.SetDefault("retry.max_delay", d.Retry.MaxDelay)
	viper.SetDefault("retry.jitter", d.Retry.Jitter)

	viper.SetDefault("numeric_tolerance", d.NumericTolerance)
	viper.SetDefault("overconfidence_threshold", d.OverconfidenceThreshold)
	viper.SetDefault("unknown_tokens", d.UnknownTokens)
}

// loadConfig decodes and validates the experiment configuration.
func loadConfig() (types.ExperimentConfig, error) {
	var cfg types.ExperimentConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
