package main

// Run database migrations:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate down
//   go run ./cmd/migrate status

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KunalSingh5431/smartPDF/internal/shared/config"
	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/db"
	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the Postgres schema",
		SilenceUsage:  true,
	}
	root.AddCommand(
		dbCommand("up", "Apply all pending migrations", db.RunMigrations),
		dbCommand("down", "Roll back the most recent migration", db.RollbackMigration),
		dbCommand("status", "Print applied and pending migrations", db.MigrationStatus),
		&cobra.Command{
			Use:   "list",
			Short: "List embedded migration files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := db.MigrationVersions()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
	)
	return root
}

func dbCommand(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := run(ctx, sqlDB); err != nil {
				return err
			}
			telemetry.Info("migrate.done", map[string]any{"command": use})
			return nil
		},
	}
}
