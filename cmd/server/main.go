package main

import (
	"fmt"
	"os"

	"github.com/Dhoini/coach-billing/internal/config"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/spf13/cobra"
)

// Version задается при сборке через -ldflags
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "coach-billing",
	Short:   "Stripe subscription reconciliation and access guard for the coaching platform",
	Version: Version,
	// Без подкоманды запускается сервер
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yml", "path to config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, accessCmd)
}

// loadConfig читает конфигурацию и создает логгер по ее уровню
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(logger.ParseLevel(cfg.Log.Level), !cfg.IsProduction())
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
