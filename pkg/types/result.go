// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunResult is one entry of the append-only result log. It is never edited
// after it is written; a retry of a failed condition appends a new entry.
type RunResult struct {
	Condition `yaml:",inline"`

	// RunID identifies the executor invocation that produced this entry.
	RunID string `json:"run_id" yaml:"run_id"`

	// Model is the provider model identifier used for the call.
	Model string `json:"model" yaml:"model"`

	// PromptText is the literal prompt sent to the model.
	PromptText string `json:"prompt_text" yaml:"prompt_text"`

	// RawResponse is the untouched response text. Empty when Error is set.
	RawResponse string `json:"raw_response" yaml:"raw_response"`

	// Timestamp is when the response (or final failure) was received.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Attempts is the number of model calls made for this entry.
	Attempts int `json:"attempts" yaml:"attempts"`

	// Error holds the final transient error after retries were exhausted.
	// A result with Error set does not complete its condition.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Completed reports whether the result completes its condition.
func (r RunResult) Completed() bool {
	return r.Error == ""
}

// AnswerState distinguishes a real answer from an explicit decline and from
// no answer at all.
type AnswerState string

const (
	AnswerAbsent   AnswerState = "absent"
	AnswerGiven    AnswerState = "given"
	AnswerDeclined AnswerState = "unknown"
)

// ParsedResult holds the fields extracted from a RunResult's raw response.
type ParsedResult struct {
	Condition `yaml:",inline"`

	// Confidence is the reported confidence in [0,100]; nil when absent.
	Confidence *int `json:"confidence" yaml:"confidence"`

	// AnswerState says whether Answer carries a value.
	AnswerState AnswerState `json:"answer_state" yaml:"answer_state"`

	// Answer is the cleaned answer text when AnswerState is given or unknown.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// ParseError describes a missing or unparseable marker.
	ParseError string `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
}

// Parsed reports whether both markers were extracted.
func (p ParsedResult) Parsed() bool {
	return p.ParseError == ""
}

// FailureMode labels why a scored result is not correct.
type FailureMode string

const (
	FailureNone          FailureMode = ""
	FailureFormatting    FailureMode = "formatting_failure"
	FailureUnknown       FailureMode = "unknown"
	FailureIncorrect     FailureMode = "incorrect"
	FailureOverconfident FailureMode = "overconfident"
)

// ScoredResult is a ParsedResult judged against its question.
type ScoredResult struct {
	ParsedResult `yaml:",inline"`

	// Category and Difficulty are copied from the question for grouping.
	Category   Category   `json:"category" yaml:"category"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`

	// Expected is the dataset answer.
	Expected string `json:"expected" yaml:"expected"`

	// Correct is true only for a parsed, non-declined, matching answer.
	Correct bool `json:"correct" yaml:"correct"`

	// Unknown is true when the model explicitly declined to answer.
	Unknown bool `json:"unknown" yaml:"unknown"`

	// FormattingFailure is true when the response could not be parsed.
	FormattingFailure bool `json:"formatting_failure" yaml:"formatting_failure"`

	// MatchType records how the comparison was made (numeric, text,
	// text_fallback, unknown, parse_failure).
	MatchType string `json:"match_type" yaml:"match_type"`

	// FailureMode is assigned heuristically or from manual annotations.
	FailureMode FailureMode `json:"failure_mode,omitempty" yaml:"failure_mode,omitempty"`
}
