package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jandubois/jmxcheck/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run history database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("down", false, "Roll back all migrations")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dbPath := getDatabasePath(cmd)
	if dbPath == "" {
		return fmt.Errorf("%w: --database or JMXCHECK_DATABASE is required", errMissingParameter)
	}
	down, _ := cmd.Flags().GetBool("down")

	store, err := db.Connect(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if down {
		slog.Info("rolling back all migrations")
		if err := store.Rollback(cmd.Context()); err != nil {
			return err
		}
		slog.Info("migrations rolled back")
		return nil
	}

	slog.Info("running migrations")
	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}
	version, err := store.Version(cmd.Context())
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "version", version)
	return nil
}
