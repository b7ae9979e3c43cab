package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"FinanceDesk/internal/config"
	"FinanceDesk/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "desk",
	Short: "FinanceDesk - personal stock research assistant",
	Long: `FinanceDesk - personal stock research assistant

Usage:
    desk [command]

Commands:
    serve       start the HTTP API and scheduled jobs (default)
    score       print opportunity scores for tickers
    briefing    print today's briefing
    migrate     create the database tables and exit
`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(briefingCmd)
	rootCmd.AddCommand(migrateCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return config.DefaultPath
}

// setup loads and validates the config and builds the root logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
