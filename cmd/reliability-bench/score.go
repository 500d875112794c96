// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Judge parsed answers against the dataset and write scores CSV",
	Long: `Score parses the result log, compares each answer with the expected answer
(numeric within tolerance or normalized text), assigns a failure mode, and
writes one row per response to scores_path. Manual labels in
annotations_path override the heuristic failure modes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = scoreStage(cmd.Context(), cfg, os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
