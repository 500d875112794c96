// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reliability-bench/internal/dataset"
	"github.com/pdiddy/reliability-bench/internal/executor"
	"github.com/pdiddy/reliability-bench/internal/runlog"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report completed, failed, and pending conditions",
	Long: `Status compares the planned grid with the result log and reports, per
prompt type and temperature, how many conditions are completed, how many
have only failed attempts, and how many were never attempted.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output the report as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log, err := runlog.Open(ctx, cfg.LogBackend, cfg.ResultsPath, logger)
	if err != nil {
		return err
	}
	defer log.Close()
	records, err := log.Records(ctx)
	if err != nil {
		return fmt.Errorf("reading result log: %w", err)
	}

	grid := executor.Plan(store.Questions(), cfg.Prompts, cfg.Temperatures, cfg.Repetitions)
	rep := executor.Status(grid, records)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "prompt\ttemperature\ttotal\tcompleted\tfailed\tpending")
	for _, r := range rep.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			r.PromptType, types.FormatTemperature(r.Temperature), r.Total, r.Completed, r.Failed, r.Pending)
	}
	fmt.Fprintf(tw, "all\t\t%d\t%d\t%d\t%d\n", rep.Total, rep.Completed, rep.Failed, rep.Pending)
	if err := tw.Flush(); err != nil {
		return err
	}
	if rep.Orphaned > 0 {
		fmt.Printf("%d logged condition(s) are outside the configured grid\n", rep.Orphaned)
	}
	return nil
}
