// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract answers and confidences from logged responses",
	Long: `Parse reads the successful responses in the result log and extracts the
final CONFIDENCE and ANSWER markers from each. Responses without a marker are
kept with a parse error. Results are cached in parsed_path and reused while
the log and parser settings are unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, err = parseStage(cmd.Context(), cfg, os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
