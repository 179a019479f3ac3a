package availability

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	nextFrom  string
	nextCount int
)

var nextCmd = &cobra.Command{
	Use:   "next <professional-id>",
	Short: "Find the next dates with a free slot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		professionalID, err := cli.ParseID("professional", args[0])
		if err != nil {
			return err
		}
		from, err := cli.ParseDate(app, nextFrom)
		if err != nil {
			return err
		}

		days, err := app.NextAvailableHandler.Handle(cmd.Context(), queries.NextAvailableQuery{
			ProfessionalID: professionalID,
			From:           from,
			Count:          nextCount,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), days)
		}

		out := cmd.OutOrStdout()
		if len(days) == 0 {
			fmt.Fprintln(out, "No free slots in the search horizon.")
			return nil
		}
		for _, d := range days {
			fmt.Fprintf(out, "%s  %2d free  first %s\n", d.Date, d.AvailableSlots, d.FirstFree)
		}
		return nil
	},
}

func init() {
	nextCmd.Flags().StringVar(&nextFrom, "from", "", "start searching on this date (default today)")
	nextCmd.Flags().IntVarP(&nextCount, "count", "n", 1, "number of dates to return")
}
