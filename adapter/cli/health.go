package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database, cache and broker connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := Require()
		if err != nil {
			return err
		}

		overall := app.Health.GetOverallHealth(cmd.Context())
		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), overall)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", overall.Status)
		for _, name := range slices.Sorted(maps.Keys(overall.Checks)) {
			check := overall.Checks[name]
			fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s", name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", check.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if overall.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
