// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdiddy/reliability-bench/internal/atomicfile"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// csvHeader is the column set of scores.csv.
var csvHeader = []string{
	"question_id",
	"category",
	"difficulty",
	"prompt_name",
	"temperature",
	"run_index",
	"parsed_answer",
	"ground_truth",
	"is_correct",
	"is_unknown",
	"confidence",
	"parse_success",
	"match_type",
	"failure_mode",
}

// WriteCSV writes one row per scored result to path.
func WriteCSV(path string, results []types.ScoredResult) error {
	return atomicfile.Write(path, func(w io.Writer) error {
		return EncodeCSV(w, results)
	})
}

// EncodeCSV writes the header and one row per result to w.
func EncodeCSV(w io.Writer, results []types.ScoredResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		confidence := ""
		if r.Confidence != nil {
			confidence = strconv.Itoa(*r.Confidence)
		}
		row := []string{
			r.QuestionID,
			string(r.Category),
			string(r.Difficulty),
			string(r.PromptType),
			types.FormatTemperature(r.Temperature),
			strconv.Itoa(r.Repetition),
			r.Answer,
			r.Expected,
			strconv.FormatBool(r.Correct),
			strconv.FormatBool(r.Unknown),
			confidence,
			strconv.FormatBool(r.Parsed()),
			r.MatchType,
			string(r.FailureMode),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads scored results from a scores.csv written by WriteCSV. Rows
// that failed to parse come back with a generic ParseError since the file
// does not keep the original message.
func ReadCSV(path string) ([]types.ScoredResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scores: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading scores header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range csvHeader[:len(csvHeader)-1] {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("scores file %s: missing column %q", path, name)
		}
	}

	var out []types.ScoredResult
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading scores line %d: %w", line, err)
		}
		r, err := decodeRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("scores line %d: %w", line, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeRow(row []string, col map[string]int) (types.ScoredResult, error) {
	get := func(name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	var r types.ScoredResult
	var err error
	r.QuestionID = get("question_id")
	r.Category = types.Category(get("category"))
	r.Difficulty = types.Difficulty(get("difficulty"))
	r.PromptType = types.PromptType(get("prompt_name"))
	if r.Temperature, err = strconv.ParseFloat(get("temperature"), 64); err != nil {
		return r, fmt.Errorf("temperature: %w", err)
	}
	if r.Repetition, err = strconv.Atoi(get("run_index")); err != nil {
		return r, fmt.Errorf("run_index: %w", err)
	}
	r.Answer = get("parsed_answer")
	r.Expected = get("ground_truth")
	if r.Correct, err = strconv.ParseBool(get("is_correct")); err != nil {
		return r, fmt.Errorf("is_correct: %w", err)
	}
	if r.Unknown, err = strconv.ParseBool(get("is_unknown")); err != nil {
		return r, fmt.Errorf("is_unknown: %w", err)
	}
	if c := get("confidence"); c != "" {
		v, err := strconv.Atoi(c)
		if err != nil {
			return r, fmt.Errorf("confidence: %w", err)
		}
		r.Confidence = &v
	}
	parsed, err := strconv.ParseBool(get("parse_success"))
	if err != nil {
		return r, fmt.Errorf("parse_success: %w", err)
	}
	r.MatchType = get("match_type")
	r.FailureMode = types.FailureMode(get("failure_mode"))

	switch {
	case r.Unknown:
		r.AnswerState = types.AnswerDeclined
	case r.Answer != "":
		r.AnswerState = types.AnswerGiven
	default:
		r.AnswerState = types.AnswerAbsent
	}
	if !parsed {
		r.ParseError = "unparsed response"
		r.FormattingFailure = true
	}
	return r, nil
}
