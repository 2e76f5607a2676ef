package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/yuta0709/nagara-care-api/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			if err := migrations.Up(ctx, db); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			v, err := migrations.Version(ctx, db)
			if err != nil {
				return err
			}
			fmt.Printf("%s schema at version %d (%s)\n", color.New(color.FgGreen).Sprint("✓"), v, redactedURL())
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			fmt.Println(color.New(color.Faint).Sprint(redactedURL()))
			return migrations.Status(ctx, db)
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}
