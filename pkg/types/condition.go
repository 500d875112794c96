// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data model shared by the experiment stages:
// questions, conditions, logged results, and metric summaries.
package types

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// PromptType identifies one of the fixed prompting strategies. The set is
// closed: every switch over PromptType must handle all values in PromptTypes.
type PromptType string

const (
	PromptDirect           PromptType = "direct"
	PromptStepByStep       PromptType = "step_by_step"
	PromptUncertaintyAware PromptType = "uncertainty_aware"
)

// PromptTypes returns every prompt type in canonical order.
func PromptTypes() []PromptType {
	return []PromptType{PromptDirect, PromptStepByStep, PromptUncertaintyAware}
}

// ParsePromptType validates s and returns the matching PromptType.
func ParsePromptType(s string) (PromptType, error) {
	pt := PromptType(strings.TrimSpace(s))
	switch pt {
	case PromptDirect, PromptStepByStep, PromptUncertaintyAware:
		return pt, nil
	}
	return "", fmt.Errorf("unknown prompt type %q: use direct, step_by_step, or uncertainty_aware", s)
}

// Condition is one cell of the experiment grid. Each condition maps to at
// most one successful RunResult.
type Condition struct {
	QuestionID  string     `json:"question_id" yaml:"question_id"`
	PromptType  PromptType `json:"prompt_type" yaml:"prompt_type"`
	Temperature float64    `json:"temperature" yaml:"temperature"`
	Repetition  int        `json:"repetition" yaml:"repetition"`
}

// Key returns the identity of the condition used for resume lookups,
// e.g. "arith_001|direct|0.7|3".
func (c Condition) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", c.QuestionID, c.PromptType, FormatTemperature(c.Temperature), c.Repetition)
}

// String implements fmt.Stringer.
func (c Condition) String() string {
	return fmt.Sprintf("%s/%s/t=%s/rep=%d", c.QuestionID, c.PromptType, FormatTemperature(c.Temperature), c.Repetition)
}

// Cell identifies the (question, prompt type, temperature) cell that a
// group of repetitions belongs to.
func (c Condition) Cell() Cell {
	return Cell{QuestionID: c.QuestionID, PromptType: c.PromptType, Temperature: c.Temperature}
}

// Cell is a condition without its repetition index.
type Cell struct {
	QuestionID  string
	PromptType  PromptType
	Temperature float64
}

// CompareConditions orders conditions lexicographically by
// (question, prompt type, temperature, repetition).
func CompareConditions(a, b Condition) int {
	if c := cmp.Compare(a.QuestionID, b.QuestionID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PromptType, b.PromptType); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Temperature, b.Temperature); c != 0 {
		return c
	}
	return cmp.Compare(a.Repetition, b.Repetition)
}

// FormatTemperature renders a temperature in its shortest exact form.
func FormatTemperature(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
