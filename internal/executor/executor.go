// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package executor runs the experiment grid against a model and persists
// each result before moving on. Re-running it only calls the model for
// conditions that have no successful record, so an interrupted run resumes
// without repeating billed calls.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/reliability-bench/internal/model"
	"github.com/pdiddy/reliability-bench/internal/runlog"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// Generator is the retrying model client the executor calls.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (model.Generation, error)
}

// Renderer turns a condition's prompt type and question into prompt text.
type Renderer interface {
	Render(pt types.PromptType, q types.QuestionRecord) (string, error)
}

// now is the clock used for result timestamps. Tests override it.
var now = time.Now

// Options tunes one executor invocation.
type Options struct {
	// Concurrency caps in-flight model calls (default 1).
	Concurrency int

	// Limit caps how many remaining conditions run in this invocation.
	// Zero runs them all.
	Limit int

	// DryRun lists the conditions that would run without calling the model.
	DryRun bool

	// Model is recorded on every RunResult.
	Model string

	// RunID identifies this invocation in the log. Generated when empty.
	RunID string

	Logger *slog.Logger
}

// Summary holds counts from one executor invocation.
type Summary struct {
	Executed int
	Failed   int
	Skipped  int

	// Deferred counts remaining conditions that were not attempted. It
	// includes those beyond Limit and, in a dry run, the listed pending
	// ones, so a dry run always defers every remaining condition.
	Deferred int
}

// Total returns the number of grid conditions accounted for.
func (s Summary) Total() int {
	return s.Executed + s.Failed + s.Skipped + s.Deferred
}

// HasFailures reports whether any condition ended in a recorded failure.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Executor drives model calls for the grid and appends results to the log.
type Executor struct {
	gen       Generator
	renderer  Renderer
	log       runlog.Log
	questions map[string]types.QuestionRecord
	opts      Options
}

// New builds an Executor. questions must contain every question referenced
// by the grid passed to Run.
func New(gen Generator, renderer Renderer, log runlog.Log, questions []types.QuestionRecord, opts Options) *Executor {
	byID := make(map[string]types.QuestionRecord, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{gen: gen, renderer: renderer, log: log, questions: byID, opts: opts}
}

// RunID returns the identifier recorded on this invocation's results.
func (e *Executor) RunID() string { return e.opts.RunID }

// job is one condition ready to call.
type job struct {
	cond   types.Condition
	prompt string
}

// Run executes every condition of grid that has no successful record.
//
// Each result is appended to the log before its worker takes another
// condition. Transient failures that exhaust their retries are recorded
// with the error set and count as Failed; the next Run retries them. A fatal
// model error stops the run and is returned without recording the failing
// condition. Cancelling ctx stops new calls; in-flight calls that fail
// because of the cancellation are not recorded.
func (e *Executor) Run(ctx context.Context, grid []types.Condition, w io.Writer) (Summary, error) {
	records, err := e.log.Records(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("reading result log: %w", err)
	}
	remaining := Remaining(grid, records)

	summary := Summary{Skipped: len(grid) - len(remaining)}

	// Render everything up front so configuration errors halt the run
	// before the first call.
	jobs := make([]job, 0, len(remaining))
	for _, c := range remaining {
		q, ok := e.questions[c.QuestionID]
		if !ok {
			return summary, fmt.Errorf("condition %s: unknown question %q", c, c.QuestionID)
		}
		text, err := e.renderer.Render(c.PromptType, q)
		if err != nil {
			return summary, fmt.Errorf("condition %s: %w", c, err)
		}
		jobs = append(jobs, job{cond: c, prompt: text})
	}

	if e.opts.Limit > 0 && len(jobs) > e.opts.Limit {
		summary.Deferred = len(jobs) - e.opts.Limit
		jobs = jobs[:e.opts.Limit]
	}

	if e.opts.DryRun {
		for _, j := range jobs {
			fmt.Fprintf(w, "pending %s\n", j.cond)
		}
		summary.Deferred += len(jobs)
		return summary, nil
	}

	e.opts.Logger.Info("starting run",
		"run_id", e.opts.RunID,
		"remaining", len(jobs),
		"skipped", summary.Skipped,
		"concurrency", e.opts.Concurrency)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := e.call(gctx, j)
			if err != nil {
				if gctx.Err() != nil && !model.IsFatal(err) {
					return nil
				}
				return err
			}
			if res == nil {
				return nil
			}

			// Persist even if the run is being cancelled: the call was paid for.
			if err := e.log.Append(context.WithoutCancel(gctx), *res); err != nil {
				return fmt.Errorf("recording %s: %w", j.cond, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if res.Completed() {
				summary.Executed++
				fmt.Fprintf(w, "executed %s (attempts %d)\n", j.cond, res.Attempts)
			} else {
				summary.Failed++
				fmt.Fprintf(w, "failed  %s: %s\n", j.cond, res.Error)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// call makes the model call for j and builds its RunResult. It returns a nil
// result when the call was interrupted by cancellation and an error only for
// fatal failures.
func (e *Executor) call(ctx context.Context, j job) (*types.RunResult, error) {
	gen, err := e.gen.Generate(ctx, j.prompt, j.cond.Temperature)
	res := &types.RunResult{
		Condition:   j.cond,
		RunID:       e.opts.RunID,
		Model:       e.opts.Model,
		PromptText:  j.prompt,
		RawResponse: gen.Text,
		Timestamp:   now().UTC(),
		Attempts:    gen.Attempts,
	}
	if err == nil {
		return res, nil
	}

	switch {
	case model.IsFatal(err):
		return nil, fmt.Errorf("condition %s: %w", j.cond, err)
	case errors.Is(err, context.Canceled) || (ctx.Err() != nil && errors.Is(err, ctx.Err())):
		return nil, nil
	}

	e.opts.Logger.Warn("condition failed after retries",
		"condition", j.cond.String(),
		"attempts", gen.Attempts,
		"error", err)
	res.RawResponse = ""
	res.Error = err.Error()
	return res, nil
}
