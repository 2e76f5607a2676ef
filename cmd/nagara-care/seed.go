package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"go.uber.org/zap"
)

const globalAdminLoginID = "global-admin1"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or reset the global admin account",
	Long: `Create the GLOBAL_ADMIN "global-admin1", or reset its password when it exists.

The password is read from ADMIN_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.AdminPassword == "" {
			return errors.New("ADMIN_PASSWORD is not set")
		}
		return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB) error {
			users := service.NewUserService(
				repository.NewPostgresUsersRepository(db),
				repository.NewPostgresTenantsRepository(db),
				zap.NewNop(),
			)
			u, err := users.UpsertGlobalAdmin(ctx, service.GlobalAdminRequest{
				LoginID:            globalAdminLoginID,
				Password:           cfg.Auth.AdminPassword,
				FamilyName:         "管理者",
				GivenName:          "グローバル",
				FamilyNameFurigana: "かんりしゃ",
				GivenNameFurigana:  "ぐろーばる",
			})
			if err != nil {
				return fmt.Errorf("seed global admin: %w", err)
			}
			fmt.Printf("%s %s (%s)\n", color.New(color.FgGreen).Sprint("✓ seeded"), u.LoginID, u.UID)
			return nil
		})
	},
}
