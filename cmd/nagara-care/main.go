// Command nagara-care is the operator CLI: schema migrations, the global admin seed
// and a dump of the effective capability table.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"github.com/yuta0709/nagara-care-api/internal/common/database"
	"github.com/yuta0709/nagara-care-api/internal/config"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nagara-care",
	Short: "Operator CLI for nagara-care-api",
	Long: `nagara-care manages a nagara-care-api deployment.

It reads the same environment variables as the API server (DB_*, ADMIN_PASSWORD,
CAPABILITY_TABLE_FILE, ...).`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, migrateCmd, capabilitiesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB connects with the server's DB settings. The CLI has no memory fallback.
func openDB() (*sql.DB, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", redactedURL(), err)
	}
	return db, nil
}

func redactedURL() string {
	u, err := url.Parse(cfg.Database.GetURL())
	if err != nil {
		return cfg.Database.Host
	}
	return u.Redacted()
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db)
}
