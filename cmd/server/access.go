package main

import (
	"encoding/json"
	"fmt"

	"github.com/Dhoini/coach-billing/internal/db"
	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/internal/repository/postgres"
	"github.com/Dhoini/coach-billing/internal/service"
	"github.com/spf13/cobra"
)

var (
	accessEmail      string
	accessSuperAdmin bool
)

var accessCmd = &cobra.Command{
	Use:   "access <user-id>",
	Short: "Print the access decision for a coach",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		in, err := connectStores(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer in.Close()

		details := postgres.NewDetailsRepository(in.pool)
		svc := service.NewAccessService(
			repository.NewCachedSubscriptionRepository(postgres.NewSubscriptionRepository(in.pool, log), in.cache, log),
			db.NewPlanStore(in.catalog),
			repository.NewCachedSettingsRepository(db.NewSettingsStore(in.catalog), in.cache, log),
			details,
			nil,
			log,
		)

		caller := domain.Caller{
			UserID:       args[0],
			Email:        accessEmail,
			IsSuperAdmin: accessSuperAdmin || cfg.IsOperatorEmail(accessEmail),
		}
		result, err := svc.Evaluate(ctx, caller)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(struct {
			UserID        string `json:"user_id"`
			CanAddAthlete bool   `json:"can_add_athlete"`
			Result        any    `json:"result"`
		}{caller.UserID, result.CanAddAthlete(), result}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	accessCmd.Flags().StringVar(&accessEmail, "email", "", "caller email, checked against operator emails")
	accessCmd.Flags().BoolVar(&accessSuperAdmin, "super-admin", false, "evaluate as a super admin")
}
