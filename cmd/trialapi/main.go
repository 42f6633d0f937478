package main

import (
	"fmt"
	"os"

	"trialapi/config"
	"trialapi/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configFile string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "trialapi",
	Short: "Clinical trial metadata service",
	Long: `trialapi validates uploaded clinical trial documents against a JSON
Schema, normalizes them and stores them for querying over HTTP.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
				return fmt.Errorf("failed to set CONFIG_FILE: %w", err)
			}
		}

		loaded, err := config.InitConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		logger.Setup(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to an env-style config file (default .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
