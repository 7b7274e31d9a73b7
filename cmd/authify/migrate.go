package main

import (
	"github.com/spf13/cobra"

	"github.com/AlibekovAA/authify/backend/internal/common/bootstrap"
	"github.com/AlibekovAA/authify/backend/internal/common/config"
	"github.com/AlibekovAA/authify/backend/internal/common/db"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Long:      `Apply, roll back or list the embedded migrations against DATABASE_URL. Defaults to up.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(db.MigrateUp), string(db.MigrateDown), string(db.MigrateStatus)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := db.MigrateUp
			if len(args) == 1 {
				direction = db.MigrateDirection(args[0])
			}

			cfg, err := config.LoadAuthConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabaseURL(); err != nil {
				return err
			}

			log, err := bootstrap.NewLogger(cfg, "authify-migrate")
			if err != nil {
				return err
			}

			if err := db.Migrate(cmd.Context(), log, cfg.DatabaseURL, direction); err != nil {
				return err
			}
			cmd.Printf("migrate %s: done\n", direction)
			return nil
		},
	}
}
