/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/walkgoal/apiserver/config"
	"github.com/walkgoal/apiserver/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "walkgoal",
	Short: "Shared walking-goal tracker",
	Long: `walkgoal records walking minutes for a small group and tracks
their combined progress toward a shared goal.

Configuration is read from the environment; with ENV=dev a .env file is
loaded first.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the environment and builds the logger that
// goes with it.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg := config.LoadConfig()
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return cfg, logger, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}
