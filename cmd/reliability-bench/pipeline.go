// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run, score, and analyze in one invocation",
	Long: `Pipeline runs the remaining conditions, then parses, scores, and analyzes
the whole log. Conditions that failed transiently are reported but do not
stop the analysis of the completed ones.`,
	RunE: runPipeline,
}

func init() {
	addRunFlags(pipelineCmd)
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, concurrency := runFlags(cmd)
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	ctx := cmd.Context()
	summary, err := runStage(ctx, cfg, opts, os.Stdout)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}

	scored, err := scoreStage(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if err := analyzeStage(cfg, scored, os.Stdout); err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d condition(s) failed; run again to retry them", summary.Failed)
	}
	return nil
}
