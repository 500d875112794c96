// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the reliability-bench CLI.
// It runs the experiment grid against a model and turns the result log into
// parsed answers, scores, and reliability metrics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/reliability-bench/internal/secrets"
	"github.com/pdiddy/reliability-bench/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger carries operator diagnostics. Progress lines go to stdout.
var logger = slog.New(slog.DiscardHandler)

// rootCmd is the base command for the reliability-bench CLI.
var rootCmd = &cobra.Command{
	Use:   "reliability-bench",
	Short: "Measure how consistent, calibrated, and correct a model's answers are",
	Long: `reliability-bench runs every (question, prompt type, temperature, repetition)
condition of an experiment against a language model, records each response in
an append-only log, and derives accuracy, consistency, and calibration metrics.

The run stage is resumable: interrupt it at any point and run it again to
execute only the conditions that have no successful result yet. The parse,
score, and analyze stages are pure reads of the log and may be repeated.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./reliability-bench.yaml or ~/.config/reliability-bench/reliability-bench.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	setDefaults(types.DefaultExperimentConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("reliability-bench")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "reliability-bench"))
		}
	}

	viper.SetEnvPrefix("RELIABILITY_BENCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
