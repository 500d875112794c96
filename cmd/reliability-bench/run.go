// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the remaining conditions of the experiment grid",
	Long: `Run plans the full grid of (question, prompt type, temperature, repetition)
conditions, skips every condition that already has a successful result in the
log, and calls the model for the rest. Each response is appended to the log
as soon as it arrives, so an interrupted run resumes where it stopped.

Transient failures that exhaust their retries are logged with the error and
retried by the next run. A fatal error (bad credentials, invalid request)
stops the run immediately.`,
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "execute at most this many remaining conditions (0 = all)")
	cmd.Flags().Bool("dry-run", false, "list the remaining conditions without calling the model")
	cmd.Flags().Int("concurrency", 0, "maximum in-flight model calls (default from config)")
}

// runFlags applies the run flags of cmd on top of the configuration.
func runFlags(cmd *cobra.Command) (runOptions, int) {
	limit, _ := cmd.Flags().GetInt("limit")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	return runOptions{Limit: limit, DryRun: dryRun}, concurrency
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, concurrency := runFlags(cmd)
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	summary, err := runStage(cmd.Context(), cfg, opts, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d condition(s) failed; run again to retry them", summary.Failed)
	}
	return nil
}
