// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/reliability-bench/internal/dataset"
	"github.com/pdiddy/reliability-bench/internal/executor"
	"github.com/pdiddy/reliability-bench/internal/metrics"
	"github.com/pdiddy/reliability-bench/internal/model"
	"github.com/pdiddy/reliability-bench/internal/parse"
	"github.com/pdiddy/reliability-bench/internal/prompt"
	"github.com/pdiddy/reliability-bench/internal/report"
	"github.com/pdiddy/reliability-bench/internal/retry"
	"github.com/pdiddy/reliability-bench/internal/runlog"
	"github.com/pdiddy/reliability-bench/internal/score"
	"github.com/pdiddy/reliability-bench/internal/secrets"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// runOptions are the per-invocation overrides of the run stage.
type runOptions struct {
	Limit  int
	DryRun bool
}

// readRecords returns the effective view of the result log.
func readRecords(ctx context.Context, cfg types.ExperimentConfig) ([]types.RunResult, error) {
	log, err := runlog.Open(ctx, cfg.LogBackend, cfg.ResultsPath, logger)
	if err != nil {
		return nil, err
	}
	defer log.Close()

	records, err := log.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading result log: %w", err)
	}
	return runlog.Effective(records), nil
}

// runStage executes the remaining conditions of the experiment grid.
func runStage(ctx context.Context, cfg types.ExperimentConfig, opts runOptions, w io.Writer) (executor.Summary, error) {
	store, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return executor.Summary{}, err
	}
	renderer, err := prompt.NewRenderer(cfg.PromptsDir)
	if err != nil {
		return executor.Summary{}, err
	}
	grid := executor.Plan(store.Questions(), cfg.Prompts, cfg.Temperatures, cfg.Repetitions)

	var gen executor.Generator
	if !opts.DryRun {
		key, err := secrets.APIKey(loadedSecrets, cfg.Model.Provider)
		if err != nil {
			return executor.Summary{}, err
		}
		cfg.Model.APIKey = key
		client, err := model.New(ctx, cfg.Model)
		if err != nil {
			return executor.Summary{}, err
		}
		gen = model.NewRetrying(client, retry.FromConfig(cfg.Retry), cfg.RateLimitRPM, logger)
	}

	log, err := runlog.Open(ctx, cfg.LogBackend, cfg.ResultsPath, logger)
	if err != nil {
		return executor.Summary{}, err
	}
	defer log.Close()

	exec := executor.New(gen, renderer, log, store.Questions(), executor.Options{
		Concurrency: cfg.Concurrency,
		Limit:       opts.Limit,
		DryRun:      opts.DryRun,
		Model:       cfg.Model.Name,
		Logger:      logger,
	})
	summary, err := exec.Run(ctx, grid, w)
	fmt.Fprintf(w, "\nrun %s: %d executed, %d failed, %d skipped, %d deferred (grid %d)\n",
		exec.RunID(), summary.Executed, summary.Failed, summary.Skipped, summary.Deferred, len(grid))
	return summary, err
}

// parseStage extracts answers and confidences from the successful records,
// reusing the parse cache when its inputs are unchanged.
func parseStage(ctx context.Context, cfg types.ExperimentConfig, w io.Writer) ([]types.ParsedResult, error) {
	records, err := readRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}
	parsed, err := parse.New(cfg.UnknownTokens).Cached(cfg.ParsedPath, records, logger)
	if err != nil {
		return nil, err
	}

	var failed int
	for _, p := range parsed {
		if !p.Parsed() {
			failed++
		}
	}
	fmt.Fprintf(w, "parsed %d responses (%d with parse errors)\n", len(parsed), failed)
	return parsed, nil
}

// scoreStage judges parsed results against the dataset and writes the
// scores CSV.
func scoreStage(ctx context.Context, cfg types.ExperimentConfig, w io.Writer) ([]types.ScoredResult, error) {
	store, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return nil, err
	}
	parsed, err := parseStage(ctx, cfg, w)
	if err != nil {
		return nil, err
	}

	var annotations map[string]types.FailureMode
	if cfg.AnnotationsPath != "" {
		annotations, err = score.LoadAnnotations(cfg.AnnotationsPath)
		if err != nil {
			return nil, err
		}
	}

	scorer := score.New(store.Questions(), score.Options{
		NumericTolerance:        cfg.NumericTolerance,
		OverconfidenceThreshold: cfg.OverconfidenceThreshold,
		Annotations:             annotations,
	})
	scored, err := scorer.ScoreAll(parsed)
	if err != nil {
		return nil, err
	}
	if cfg.ScoresPath != "" {
		if err := score.WriteCSV(cfg.ScoresPath, scored); err != nil {
			return nil, err
		}
	}

	var correct int
	for _, s := range scored {
		if s.Correct {
			correct++
		}
	}
	fmt.Fprintf(w, "scored %d responses (%d correct) -> %s\n", len(scored), correct, cfg.ScoresPath)
	return scored, nil
}

// analyzeStage aggregates scored results, writes the report files, and
// prints the condition table.
func analyzeStage(cfg types.ExperimentConfig, scored []types.ScoredResult, w io.Writer) error {
	rep := metrics.Compute(scored, cfg.OverconfidenceThreshold)
	doc := report.Document{
		GeneratedAt:             time.Now().UTC(),
		Model:                   cfg.Model.Name,
		OverconfidenceThreshold: cfg.OverconfidenceThreshold,
		Report:                  rep,
	}

	if cfg.ReportDir != "" {
		paths, err := report.Write(cfg.ReportDir, doc)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(w, "wrote %s\n", p)
		}
	}
	fmt.Fprintln(w)
	return report.Table(w, rep)
}
