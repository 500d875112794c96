// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reliability-bench/internal/score"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute reliability metrics and write the report",
	Long: `Analyze aggregates scored responses into accuracy (with a Wilson interval),
disagreement and flip rates, expected calibration error, overconfidence,
UNKNOWN and formatting-failure rates. Metrics are grouped by prompt type and
temperature, by category, and by difficulty, and written to report_dir as
metrics.yaml, metrics.json, and report.md.

Analyze reads scores_path when it exists; --rescore recomputes the scores
from the result log first.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("rescore", false, "recompute scores from the result log before analyzing")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rescore, _ := cmd.Flags().GetBool("rescore")
	var scored []types.ScoredResult
	if !rescore && cfg.ScoresPath != "" {
		scored, err = score.ReadCSV(cfg.ScoresPath)
		if errors.Is(err, fs.ErrNotExist) {
			rescore = true
		} else if err != nil {
			return err
		}
	} else {
		rescore = true
	}
	if rescore {
		scored, err = scoreStage(cmd.Context(), cfg, os.Stdout)
		if err != nil {
			return err
		}
	}
	return analyzeStage(cfg, scored, os.Stdout)
}
