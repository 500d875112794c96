// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score judges parsed answers against the dataset.
package score

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Match types recorded on every ScoredResult.
const (
	MatchNumeric      = "numeric"
	MatchText         = "text"
	MatchTextFallback = "text_fallback"
	MatchUnknown      = "unknown"
	MatchParseFailure = "parse_failure"
)

// trailingUnit matches a number followed by a single unit word, e.g.
// "180 miles" or "25 liters".
var trailingUnit = regexp.MustCompile(`^([-+]?[\d.]+(?:\s*/\s*[\d.]+)?)\s+[a-z][a-z/]*\.?$`)

// Judgement is the outcome of comparing one answer.
type Judgement struct {
	Correct           bool
	Unknown           bool
	FormattingFailure bool
	MatchType         string
}

// Judge compares a parsed result with the expected answer.
//
// An explicit decline is incorrect and flagged Unknown, never a formatting
// failure. Any other result with a parse error is a formatting failure and
// incorrect. Numeric answers are compared as numbers within an absolute
// tolerance; zero means exact after normalization. A parsed value that is not a number
// falls back to text comparison. Text answers must match exactly after case
// folding and whitespace normalization.
func Judge(p types.ParsedResult, expected string, answerType types.AnswerType, tolerance float64) Judgement {
	j := Judgement{Unknown: p.AnswerState == types.AnswerDeclined}
	switch {
	case j.Unknown:
		j.MatchType = MatchUnknown
		return j
	case !p.Parsed():
		j.FormattingFailure = true
		j.MatchType = MatchParseFailure
		return j
	}

	if answerType == types.AnswerNumeric {
		got, okGot := NormalizeNumeric(p.Answer)
		want, okWant := NormalizeNumeric(expected)
		if okGot && okWant {
			j.Correct = math.Abs(got-want) <= max(tolerance, 0)
			j.MatchType = MatchNumeric
			return j
		}
		j.Correct = NormalizeText(p.Answer) == NormalizeText(expected)
		j.MatchType = MatchTextFallback
		return j
	}

	j.Correct = NormalizeText(p.Answer) == NormalizeText(expected)
	j.MatchType = MatchText
	return j
}

// NormalizeNumeric parses s as a number after removing currency symbols,
// percent signs, thousands separators and a trailing unit word. Simple
// fractions "a/b" are evaluated. Malformed numbers are not repaired.
func NormalizeNumeric(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(",", "", "$", "", "%", "").Replace(s)
	s = strings.TrimSpace(s)
	if m := trailingUnit.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizeText lowercases s, collapses whitespace and trims punctuation
// from both ends.
func NormalizeText(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// Options configures a Scorer.
type Options struct {
	// NumericTolerance is the largest absolute difference a numeric answer
	// may have from the expected value. Zero requires an exact match.
	NumericTolerance float64

	// OverconfidenceThreshold defaults to types.DefaultOverconfidenceThreshold.
	OverconfidenceThreshold int

	// Annotations maps condition keys to manually assigned failure modes.
	Annotations map[string]types.FailureMode
}

// Scorer scores parsed results against a fixed question set.
type Scorer struct {
	questions map[string]types.QuestionRecord
	opts      Options
}

// New builds a Scorer over questions.
func New(questions []types.QuestionRecord, opts Options) *Scorer {
	byID := make(map[string]types.QuestionRecord, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	if opts.OverconfidenceThreshold <= 0 {
		opts.OverconfidenceThreshold = types.DefaultOverconfidenceThreshold
	}
	return &Scorer{questions: byID, opts: opts}
}

// Score judges p against its question and assigns a failure mode.
func (s *Scorer) Score(p types.ParsedResult) (types.ScoredResult, error) {
	q, ok := s.questions[p.QuestionID]
	if !ok {
		return types.ScoredResult{}, fmt.Errorf("scoring %s: unknown question %q", p.Condition, p.QuestionID)
	}

	j := Judge(p, q.Answer, q.AnswerType, s.opts.NumericTolerance)
	res := types.ScoredResult{
		ParsedResult:      p,
		Category:          q.Category,
		Difficulty:        q.Difficulty,
		Expected:          q.Answer,
		Correct:           j.Correct,
		Unknown:           j.Unknown,
		FormattingFailure: j.FormattingFailure,
		MatchType:         j.MatchType,
	}
	res.FailureMode = s.failureMode(res)
	return res, nil
}

// ScoreAll scores every parsed result, in order.
func (s *Scorer) ScoreAll(parsed []types.ParsedResult) ([]types.ScoredResult, error) {
	out := make([]types.ScoredResult, 0, len(parsed))
	for _, p := range parsed {
		r, err := s.Score(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// failureMode labels an incorrect result. Manual annotations take
// precedence over the heuristic.
func (s *Scorer) failureMode(r types.ScoredResult) types.FailureMode {
	if mode, ok := s.opts.Annotations[r.Key()]; ok {
		return mode
	}
	switch {
	case r.Correct:
		return types.FailureNone
	case r.FormattingFailure:
		return types.FailureFormatting
	case r.Unknown:
		return types.FailureUnknown
	case r.Confidence != nil && *r.Confidence >= s.opts.OverconfidenceThreshold:
		return types.FailureOverconfident
	}
	return types.FailureIncorrect
}
