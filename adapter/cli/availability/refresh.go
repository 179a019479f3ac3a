package availability

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var (
	refreshDate      string
	refreshSpecialty string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute and store availability snapshots",
	Long: `Recompute the availability of every active professional for a date and
store the result as snapshots for fast reads.

Examples:
  slotwise availability refresh
  slotwise availability refresh --date 2024-01-15 --specialty hair`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		date, err := cli.ParseDate(app, refreshDate)
		if err != nil {
			return err
		}

		result, err := app.RefreshAvailabilityHandler.Handle(cmd.Context(), commands.RefreshAvailabilityCommand{
			Date:      date,
			Specialty: refreshSpecialty,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %d professionals for %s (%d failed) in %s\n",
			result.Refreshed, result.Date, result.Failed, result.Duration)
		if result.Failed > 0 {
			return fmt.Errorf("%d professionals could not be refreshed", result.Failed)
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringVarP(&refreshDate, "date", "d", "", "date (YYYY-MM-DD)")
	refreshCmd.Flags().StringVar(&refreshSpecialty, "specialty", "", "limit to one specialty")
}
