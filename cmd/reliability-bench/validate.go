// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/reliability-bench/internal/dataset"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and dataset without calling the model",
	Long: `Validate decodes the configuration, loads and schema-checks the question
dataset, and prints the question counts by category, difficulty, and answer
type together with the number of model calls the full grid needs.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return err
	}

	sum := store.Summary()
	fmt.Printf("dataset %s: %d questions\n", cfg.DatasetPath, sum.Total)
	fmt.Println("  category:")
	for _, k := range dataset.SortedKeys(sum.Categories) {
		fmt.Printf("    %-12s %d\n", k, sum.Categories[k])
	}
	fmt.Println("  difficulty:")
	for _, k := range dataset.SortedKeys(sum.Difficulties) {
		fmt.Printf("    %-12s %d\n", k, sum.Difficulties[k])
	}
	fmt.Println("  answer type:")
	for _, k := range dataset.SortedKeys(sum.AnswerTypes) {
		fmt.Printf("    %-12s %d\n", k, sum.AnswerTypes[k])
	}
	fmt.Printf("planned calls: %d (%d prompts x %d temperatures x %d repetitions)\n",
		cfg.TotalConditions(sum.Total), len(cfg.Prompts), len(cfg.Temperatures), cfg.Repetitions)
	return nil
}
