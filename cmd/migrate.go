package cmd

import (
	"log/slog"

	"timecard/database"

	"github.com/spf13/cobra"
)

// Init already migrates; this also seeds the first admin.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and seed the default admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.SeedAdmin(database.GetDB(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
		slog.Info("Database is up to date", "driver", cfg.DatabaseDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
