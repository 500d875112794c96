// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package executor

import (
	"cmp"
	"slices"

	"github.com/pdiddy/reliability-bench/internal/runlog"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Plan enumerates every condition of the experiment grid, sorted by
// (question, prompt type, temperature, repetition). Repetitions are
// numbered 0 through reps-1.
func Plan(questions []types.QuestionRecord, prompts []types.PromptType, temperatures []float64, reps int) []types.Condition {
	grid := make([]types.Condition, 0, len(questions)*len(prompts)*len(temperatures)*max(reps, 0))
	for _, q := range questions {
		for _, pt := range prompts {
			for _, temp := range temperatures {
				for rep := 0; rep < reps; rep++ {
					grid = append(grid, types.Condition{
						QuestionID:  q.ID,
						PromptType:  pt,
						Temperature: temp,
						Repetition:  rep,
					})
				}
			}
		}
	}
	slices.SortFunc(grid, types.CompareConditions)
	return slices.CompactFunc(grid, func(a, b types.Condition) bool {
		return types.CompareConditions(a, b) == 0
	})
}

// Remaining returns the conditions of grid without a successful record, in
// grid order. Conditions whose only records are failures are included.
func Remaining(grid []types.Condition, records []types.RunResult) []types.Condition {
	done := runlog.CompletedKeys(records)
	out := make([]types.Condition, 0, len(grid))
	for _, c := range grid {
		if !done[c.Key()] {
			out = append(out, c)
		}
	}
	return out
}

// StatusRow counts the conditions of one (prompt type, temperature) slice.
type StatusRow struct {
	PromptType  types.PromptType `json:"prompt_type" yaml:"prompt_type"`
	Temperature float64          `json:"temperature" yaml:"temperature"`
	Total       int              `json:"total" yaml:"total"`
	Completed   int              `json:"completed" yaml:"completed"`
	Failed      int              `json:"failed" yaml:"failed"`
	Pending     int              `json:"pending" yaml:"pending"`
}

// StatusReport is the progress of the log against the grid.
type StatusReport struct {
	Rows      []StatusRow `json:"rows" yaml:"rows"`
	Total     int         `json:"total" yaml:"total"`
	Completed int         `json:"completed" yaml:"completed"`
	Failed    int         `json:"failed" yaml:"failed"`
	Pending   int         `json:"pending" yaml:"pending"`

	// Orphaned counts logged conditions that are not in the grid, e.g.
	// after the configuration was narrowed.
	Orphaned int `json:"orphaned" yaml:"orphaned"`
}

// Status compares the grid with the logged records. A condition is failed
// when it has records but none succeeded, and pending when it has none.
func Status(grid []types.Condition, records []types.RunResult) StatusReport {
	effective := make(map[string]types.RunResult)
	for _, r := range runlog.Effective(records) {
		effective[r.Key()] = r
	}

	type sliceKey struct {
		pt   types.PromptType
		temp float64
	}
	rows := make(map[sliceKey]*StatusRow)
	inGrid := make(map[string]bool, len(grid))

	var report StatusReport
	for _, c := range grid {
		inGrid[c.Key()] = true
		k := sliceKey{c.PromptType, c.Temperature}
		row, ok := rows[k]
		if !ok {
			row = &StatusRow{PromptType: c.PromptType, Temperature: c.Temperature}
			rows[k] = row
		}
		row.Total++
		report.Total++

		r, logged := effective[c.Key()]
		switch {
		case !logged:
			row.Pending++
			report.Pending++
		case r.Completed():
			row.Completed++
			report.Completed++
		default:
			row.Failed++
			report.Failed++
		}
	}
	for key := range effective {
		if !inGrid[key] {
			report.Orphaned++
		}
	}

	for _, row := range rows {
		report.Rows = append(report.Rows, *row)
	}
	slices.SortFunc(report.Rows, func(a, b StatusRow) int {
		if c := cmp.Compare(a.PromptType, b.PromptType); c != 0 {
			return c
		}
		return cmp.Compare(a.Temperature, b.Temperature)
	})
	return report
}
