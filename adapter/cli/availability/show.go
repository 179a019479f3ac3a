package availability

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	showDate     string
	showFresh    bool
	showFreeOnly bool
)

var showCmd = &cobra.Command{
	Use:   "show <professional-id>",
	Short: "Show one professional's slots for a date",
	Long: `Display the slot grid for a professional on a date.

Examples:
  slotwise availability show 5f0c...
  slotwise availability show 5f0c... --date 2024-01-15 --free`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		professionalID, err := cli.ParseID("professional", args[0])
		if err != nil {
			return err
		}
		date, err := cli.ParseDate(app, showDate)
		if err != nil {
			return err
		}

		a, err := app.GetAvailabilityHandler.Handle(cmd.Context(), queries.GetAvailabilityQuery{
			ProfessionalID: professionalID,
			Date:           date,
			Fresh:          showFresh,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), a)
		}
		printAvailability(cmd.OutOrStdout(), a, showFreeOnly)
		return nil
	},
}

var (
	rangeFrom string
	rangeTo   string
)

var rangeCmd = &cobra.Command{
	Use:   "range <professional-id>",
	Short: "Summarise availability over a date range",
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
		from, err := cli.ParseDate(app, rangeFrom)
		if err != nil {
			return err
		}
		to := from.AddDays(6)
		if rangeTo != "" {
			if to, err = cli.ParseDate(app, rangeTo); err != nil {
				return err
			}
		}

		days, err := app.AvailabilityRangeHandler.Handle(cmd.Context(), queries.AvailabilityRangeQuery{
			ProfessionalID: professionalID,
			From:           from,
			To:             to,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), days)
		}

		out := cmd.OutOrStdout()
		for _, a := range days {
			first := "-"
			if free := a.AvailableSlots(); len(free) > 0 {
				first = free[0].Start.String()
			}
			fmt.Fprintf(out, "%s  %-9s  %2d/%2d free  first %s\n",
				a.Date, a.Date.Weekday(), a.Summary.Available, a.Summary.Total, first)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVarP(&showDate, "date", "d", "", "date to show (YYYY-MM-DD)")
	showCmd.Flags().BoolVar(&showFresh, "fresh", false, "skip cached and stored snapshots")
	showCmd.Flags().BoolVar(&showFreeOnly, "free", false, "list only free slots")

	rangeCmd.Flags().StringVar(&rangeFrom, "from", "", "first date (default today)")
	rangeCmd.Flags().StringVar(&rangeTo, "to", "", "last date (default from + 6 days)")
}
