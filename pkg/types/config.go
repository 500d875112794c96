// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// ModelProvider identifies the model API backend.
type ModelProvider string

const (
	ProviderGemini    ModelProvider = "gemini"
	ProviderOpenAI    ModelProvider = "openai"
	ProviderAnthropic ModelProvider = "anthropic"
)

// LogBackend selects the persisted result log format.
type LogBackend string

const (
	LogJSONL  LogBackend = "jsonl"
	LogSQLite LogBackend = "sqlite"
)

// ModelConfig holds settings for the model API client.
type ModelConfig struct {
	// Provider selects the backend: gemini, openai, or anthropic.
	Provider ModelProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Name is the provider model identifier (e.g. "gemini-2.0-flash").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// MaxOutputTokens caps the response length (default 1024).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens" mapstructure:"max_output_tokens"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout is the per-call HTTP timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// APIKey is resolved from .secrets/ or the environment, never from the config file.
	APIKey string `json:"-" yaml:"-" mapstructure:"-"`
}

// RetryConfig holds the retry policy applied to transient model errors.
type RetryConfig struct {
	// MaxAttempts is the total number of calls per condition (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// BaseDelay is the wait before the second attempt; it doubles afterwards (default 5s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// MaxDelay caps a single backoff wait (default 2m).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`

	// Jitter is the fraction of each delay randomized, in [0,1].
	Jitter float64 `json:"jitter" yaml:"jitter" mapstructure:"jitter"`
}

// ExperimentConfig groups every setting of an experiment run.
type ExperimentConfig struct {
	DatasetPath string `json:"dataset_path" yaml:"dataset_path" mapstructure:"dataset_path"`
	ResultsPath string `json:"results_path" yaml:"results_path" mapstructure:"results_path"`
	ParsedPath  string `json:"parsed_path" yaml:"parsed_path" mapstructure:"parsed_path"`
	ScoresPath  string `json:"scores_path" yaml:"scores_path" mapstructure:"scores_path"`
	ReportDir   string `json:"report_dir" yaml:"report_dir" mapstructure:"report_dir"`

	// AnnotationsPath optionally names a YAML file of manual failure-mode labels.
	AnnotationsPath string `json:"annotations_path,omitempty" yaml:"annotations_path,omitempty" mapstructure:"annotations_path"`

	// PromptsDir optionally holds <prompt_type>.txt template overrides.
	PromptsDir string `json:"prompts_dir,omitempty" yaml:"prompts_dir,omitempty" mapstructure:"prompts_dir"`

	Prompts      []PromptType `json:"prompts" yaml:"prompts" mapstructure:"prompts"`
	Temperatures []float64    `json:"temperatures" yaml:"temperatures" mapstructure:"temperatures"`
	Repetitions  int          `json:"repetitions" yaml:"repetitions" mapstructure:"repetitions"`

	// Concurrency caps the number of in-flight model calls (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// RateLimitRPM caps model calls per minute across all workers (0 = unlimited).
	RateLimitRPM int `json:"rate_limit_rpm" yaml:"rate_limit_rpm" mapstructure:"rate_limit_rpm"`

	LogBackend LogBackend `json:"log_backend" yaml:"log_backend" mapstructure:"log_backend"`

	Model ModelConfig `json:"model" yaml:"model" mapstructure:"model"`
	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`

	// NumericTolerance is the absolute tolerance for numeric answers. Zero
	// requires an exact match after normalization.
	NumericTolerance float64 `json:"numeric_tolerance" yaml:"numeric_tolerance" mapstructure:"numeric_tolerance"`

	// OverconfidenceThreshold is the confidence at or above which a wrong
	// answer counts as overconfident (default 80).
	OverconfidenceThreshold int `json:"overconfidence_threshold" yaml:"overconfidence_threshold" mapstructure:"overconfidence_threshold"`

	// UnknownTokens are the answers treated as an explicit decline.
	UnknownTokens []string `json:"unknown_tokens" yaml:"unknown_tokens" mapstructure:"unknown_tokens"`
}

// DefaultNumericTolerance is the absolute tolerance for numeric answers in
// the default configuration.
const DefaultNumericTolerance = 1e-6

// DefaultOverconfidenceThreshold is the confidence at or above which a wrong
// answer counts as overconfident when no threshold is configured.
const DefaultOverconfidenceThreshold = 80

// DefaultExperimentConfig returns the settings of the reference experiment:
// 3 prompt types x 2 temperatures x 5 repetitions.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		DatasetPath:  "data/questions.jsonl",
		ResultsPath:  "results/generations.jsonl",
		ParsedPath:   "results/parsed.jsonl",
		ScoresPath:   "results/scores.csv",
		ReportDir:    "results/report",
		Prompts:      PromptTypes(),
		Temperatures: []float64{0.0, 0.7},
		Repetitions:  5,
		Concurrency:  1,
		RateLimitRPM: 15,
		LogBackend:   LogJSONL,
		Model: ModelConfig{
			Provider:        ProviderGemini,
			Name:            "gemini-2.0-flash",
			MaxOutputTokens: 1024,
			Timeout:         60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   5 * time.Second,
			MaxDelay:    2 * time.Minute,
			Jitter:      0.1,
		},
		NumericTolerance:        DefaultNumericTolerance,
		OverconfidenceThreshold: DefaultOverconfidenceThreshold,
		UnknownTokens:           []string{"unknown", "i don't know", "cannot determine"},
	}
}

// Validate reports configuration errors that must stop the run before any
// model call is made.
func (c ExperimentConfig) Validate() error {
	var errs []error
	if c.DatasetPath == "" {
		errs = append(errs, errors.New("dataset_path is required"))
	}
	if c.ResultsPath == "" {
		errs = append(errs, errors.New("results_path is required"))
	}
	if len(c.Prompts) == 0 {
		errs = append(errs, errors.New("prompts must list at least one prompt type"))
	}
	for _, p := range c.Prompts {
		if _, err := ParsePromptType(string(p)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(c.Temperatures) == 0 {
		errs = append(errs, errors.New("temperatures must list at least one value"))
	}
	for _, t := range c.Temperatures {
		if t < 0 || t > 2 {
			errs = append(errs, fmt.Errorf("temperature %v out of range [0,2]", t))
		}
	}
	if c.Repetitions < 1 {
		errs = append(errs, fmt.Errorf("repetitions must be at least 1, got %d", c.Repetitions))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	switch c.LogBackend {
	case LogJSONL, LogSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown log_backend %q: use jsonl or sqlite", c.LogBackend))
	}
	switch c.Model.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unknown model provider %q: use gemini, openai, or anthropic", c.Model.Provider))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model.name is required"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.NumericTolerance < 0 {
		errs = append(errs, fmt.Errorf("numeric_tolerance must not be negative, got %v", c.NumericTolerance))
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		errs = append(errs, fmt.Errorf("retry.jitter %v out of range [0,1]", c.Retry.Jitter))
	}
	return errors.Join(errs...)
}

// TotalConditions returns the size of the experiment grid for n questions.
func (c ExperimentConfig) TotalConditions(n int) int {
	return n * len(c.Prompts) * len(c.Temperatures) * c.Repetitions
}
