// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionKeyAndString(t *testing.T) {
	c := Condition{QuestionID: "arith_001", PromptType: PromptDirect, Temperature: 0.7, Repetition: 3}
	assert.Equal(t, "arith_001|direct|0.7|3", c.Key())
	assert.Equal(t, "arith_001/direct/t=0.7/rep=3", c.String())

	zero := Condition{QuestionID: "q", PromptType: PromptStepByStep, Temperature: 0, Repetition: 0}
	assert.Equal(t, "q|step_by_step|0|0", zero.Key())
	assert.Equal(t, Cell{QuestionID: "q", PromptType: PromptStepByStep}, zero.Cell())
}

func TestCompareConditions(t *testing.T) {
	conds := []Condition{
		{QuestionID: "b", PromptType: PromptDirect},
		{QuestionID: "a", PromptType: PromptUncertaintyAware},
		{QuestionID: "a", PromptType: PromptDirect, Temperature: 0.7},
		{QuestionID: "a", PromptType: PromptDirect, Temperature: 0.7, Repetition: 1},
		{QuestionID: "a", PromptType: PromptDirect},
	}
	slices.SortFunc(conds, CompareConditions)
	assert.Equal(t, []string{
		"a|direct|0|0",
		"a|direct|0.7|0",
		"a|direct|0.7|1",
		"a|uncertainty_aware|0|0",
		"b|direct|0|0",
	}, keys(conds))
}

func keys(conds []Condition) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = c.Key()
	}
	return out
}

func TestParsePromptType(t *testing.T) {
	for _, pt := range PromptTypes() {
		got, err := ParsePromptType(" " + string(pt) + " ")
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
	_, err := ParsePromptType("socratic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socratic")
}

func TestDefaultExperimentConfigIsValid(t *testing.T) {
	cfg := DefaultExperimentConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3000, cfg.TotalConditions(100))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExperimentConfig)
		want   string
	}{
		{"no prompts", func(c *ExperimentConfig) { c.Prompts = nil }, "prompts must list"},
		{"unknown prompt", func(c *ExperimentConfig) { c.Prompts = []PromptType{"socratic"} }, "socratic"},
		{"no temperatures", func(c *ExperimentConfig) { c.Temperatures = nil }, "temperatures must list"},
		{"temperature range", func(c *ExperimentConfig) { c.Temperatures = []float64{3} }, "out of range"},
		{"zero repetitions", func(c *ExperimentConfig) { c.Repetitions = 0 }, "repetitions"},
		{"zero concurrency", func(c *ExperimentConfig) { c.Concurrency = 0 }, "concurrency"},
		{"bad backend", func(c *ExperimentConfig) { c.LogBackend = "csv" }, "log_backend"},
		{"bad provider", func(c *ExperimentConfig) { c.Model.Provider = "cohere" }, "cohere"},
		{"no model name", func(c *ExperimentConfig) { c.Model.Name = "" }, "model.name"},
		{"no attempts", func(c *ExperimentConfig) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"jitter", func(c *ExperimentConfig) { c.Retry.Jitter = 2 }, "jitter"},
		{"negative tolerance", func(c *ExperimentConfig) { c.NumericTolerance = -1 }, "numeric_tolerance"},
		{"no dataset", func(c *ExperimentConfig) { c.DatasetPath = "" }, "dataset_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultExperimentConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunResultCompleted(t *testing.T) {
	assert.True(t, RunResult{RawResponse: "ANSWER: 4"}.Completed())
	assert.False(t, RunResult{Error: "timeout"}.Completed())
	assert.True(t, ParsedResult{}.Parsed())
	assert.False(t, ParsedResult{ParseError: "missing ANSWER marker"}.Parsed())
}
