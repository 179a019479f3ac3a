package cli

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply the embedded schema migrations for the configured driver.

SQLite databases are migrated automatically when opened; PostgreSQL
deployments run this command before starting the API or worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := Require()
		if err != nil {
			return err
		}

		applied, err := migrations.Run(cmd.Context(), app.DBConn)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		}
		for _, version := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
