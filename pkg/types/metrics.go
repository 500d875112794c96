// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// GroupKey identifies the slice of results a MetricSummary covers. Empty
// fields are not part of the grouping.
type GroupKey struct {
	PromptType  PromptType `json:"prompt_type,omitempty" yaml:"prompt_type,omitempty"`
	Temperature *float64   `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Category    Category   `json:"category,omitempty" yaml:"category,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}

// Interval is a two-sided confidence interval.
type Interval struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// MetricSummary aggregates the reliability metrics of one group.
type MetricSummary struct {
	Group GroupKey `json:"group" yaml:"group"`

	// Total is the number of scored responses in the group.
	Total int `json:"total" yaml:"total"`

	// Correct is the number of correct responses.
	Correct int `json:"correct" yaml:"correct"`

	// Accuracy is Correct / Total with a Wilson score interval.
	Accuracy   float64  `json:"accuracy" yaml:"accuracy"`
	AccuracyCI Interval `json:"accuracy_ci" yaml:"accuracy_ci"`

	// Cells is the number of (question, prompt type, temperature) cells.
	Cells int `json:"cells" yaml:"cells"`

	// DisagreementRate is the fraction of cells with more than one distinct answer.
	DisagreementRate float64 `json:"disagreement_rate" yaml:"disagreement_rate"`

	// FlipRate is the fraction of cells with both correct and incorrect repetitions.
	FlipRate float64 `json:"flip_rate" yaml:"flip_rate"`

	// ECE is the expected calibration error over decile confidence buckets.
	ECE float64 `json:"ece" yaml:"ece"`

	// OverconfidenceRate is the fraction of wrong answers reporting
	// confidence at or above the threshold.
	OverconfidenceRate float64 `json:"overconfidence_rate" yaml:"overconfidence_rate"`

	// UnknownRate is the fraction of responses that declined to answer.
	UnknownRate float64 `json:"unknown_rate" yaml:"unknown_rate"`

	// FormattingFailureRate is the fraction of responses that could not be parsed.
	FormattingFailureRate float64 `json:"formatting_failure_rate" yaml:"formatting_failure_rate"`

	// MeanConfidence is the average reported confidence (0-100).
	MeanConfidence float64 `json:"mean_confidence" yaml:"mean_confidence"`
}
