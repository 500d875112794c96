// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse extracts the CONFIDENCE and ANSWER fields from raw model
// responses. A response that lacks a marker still yields a ParsedResult with
// ParseError set; parsing never fails the pipeline.
package parse

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Version identifies the parsing rules. Bump it whenever Parse changes so
// cached results are recomputed.
const Version = "3"

var (
	// ErrMissingAnswer means no usable ANSWER marker was found.
	ErrMissingAnswer = errors.New("missing ANSWER marker")

	// ErrMissingConfidence means no CONFIDENCE marker with a number was found.
	ErrMissingConfidence = errors.New("missing CONFIDENCE marker")
)

var (
	// Markers may be wrapped in markdown emphasis and use ':' or '='.
	answerRe     = regexp.MustCompile(`(?i)\bANSWER\s*\**\s*[:=]\s*\**[ \t]*(.*)`)
	confidenceRe = regexp.MustCompile(`(?i)\bCONFIDENCE\s*\**\s*[:=]\s*\**\s*(\d+(?:\.\d+)?)`)
)

// Parser turns raw responses into ParsedResults.
type Parser struct {
	unknown map[string]bool
	tokens  []string
}

// New returns a parser that treats any of unknownTokens (case-insensitive)
// as an explicit decline to answer.
func New(unknownTokens []string) *Parser {
	p := &Parser{unknown: make(map[string]bool, len(unknownTokens))}
	for _, tok := range unknownTokens {
		norm := normalizeSentinel(tok)
		if norm != "" && !p.unknown[norm] {
			p.unknown[norm] = true
			p.tokens = append(p.tokens, norm)
		}
	}
	return p
}

// Parse extracts both fields from raw. The last occurrence of each marker
// wins, since models often restate the format before answering.
func (p *Parser) Parse(raw string) types.ParsedResult {
	res := types.ParsedResult{AnswerState: types.AnswerAbsent}
	var errs []error

	conf, confOK := lastConfidence(raw)
	if confOK {
		res.Confidence = &conf
	}

	if answer, ok := lastAnswer(raw); ok {
		res.Answer = answer
		res.AnswerState = types.AnswerGiven
		if p.unknown[normalizeSentinel(answer)] {
			res.AnswerState = types.AnswerDeclined
		}
	}

	// A decline is a complete response even without a confidence.
	if !confOK && res.AnswerState != types.AnswerDeclined {
		errs = append(errs, ErrMissingConfidence)
	}
	if res.AnswerState == types.AnswerAbsent {
		errs = append(errs, ErrMissingAnswer)
	}

	if err := errors.Join(errs...); err != nil {
		res.ParseError = strings.ReplaceAll(err.Error(), "\n", "; ")
	}
	return res
}

// ParseResult parses a logged response and carries its condition.
func (p *Parser) ParseResult(r types.RunResult) types.ParsedResult {
	res := p.Parse(r.RawResponse)
	res.Condition = r.Condition
	return res
}

// ParseAll parses every successful record. Failed calls carry no response
// and are skipped.
func (p *Parser) ParseAll(records []types.RunResult) []types.ParsedResult {
	out := make([]types.ParsedResult, 0, len(records))
	for _, r := range records {
		if !r.Completed() {
			continue
		}
		out = append(out, p.ParseResult(r))
	}
	return out
}

func lastConfidence(raw string) (int, bool) {
	matches := confidenceRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return 0, false
	}
	conf := int(math.Round(v))
	return min(max(conf, 0), 100), true
}

func lastAnswer(raw string) (string, bool) {
	matches := answerRe.FindAllStringSubmatch(raw, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		// The format line "ANSWER: <your answer here>" echoed back is not an answer.
		if answer := cleanAnswer(matches[i][1]); answer != "" && answer != "<your answer here>" {
			return answer, true
		}
	}
	return "", false
}

// cleanAnswer strips surrounding quotes, backticks, markdown emphasis and a
// trailing period.
func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	for {
		before := s
		s = strings.Trim(s, "\"'`*_ \t\r")
		s = strings.TrimSuffix(s, ".")
		s = strings.TrimSpace(s)
		if s == before {
			return s
		}
	}
}

func normalizeSentinel(s string) string {
	s = strings.ToLower(cleanAnswer(s))
	s = strings.TrimRight(s, ".!? ")
	s = strings.ReplaceAll(s, "’", "'")
	return strings.Join(strings.Fields(s), " ")
}
