package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nova-ar/arbackend/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()
			if err := database.WaitReady(ctx, db, cfg.Database.ReadyAttempts, logger); err != nil {
				return fmt.Errorf("database.WaitReady() > %w", err)
			}
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Schema applied to the %s database.", cfg.Database.Driver))
			return err
		},
	}
}
