package main

import (
	"github.com/Dhoini/coach-billing/internal/migrations"
	"github.com/Dhoini/coach-billing/internal/repository/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		pool, err := postgres.NewConnection(ctx, cfg.Database.DSN, cfg.Database.MaxConns, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		return migrations.Apply(ctx, pool, log)
	},
}
