package availability

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	specialtyDate      string
	specialtyAvailable bool
)

var specialtyCmd = &cobra.Command{
	Use:   "specialty <specialty>",
	Short: "List availability for every professional of a specialty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		date, err := cli.ParseDate(app, specialtyDate)
		if err != nil {
			return err
		}

		list, err := app.AvailabilityBySpecialtyHandler.Handle(cmd.Context(), queries.AvailabilityBySpecialtyQuery{
			Specialty:     args[0],
			Date:          date,
			OnlyAvailable: specialtyAvailable,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), list)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintf(out, "No %s professionals available on %s.\n", args[0], date)
			return nil
		}
		for _, a := range list {
			fmt.Fprintf(out, "%-24s %2d/%2d free  %s\n", a.Professional.Name, a.Summary.Available, a.Summary.Total, a.Professional.ID)
		}
		return nil
	},
}

func init() {
	specialtyCmd.Flags().StringVarP(&specialtyDate, "date", "d", "", "date (YYYY-MM-DD)")
	specialtyCmd.Flags().BoolVar(&specialtyAvailable, "available", false, "only professionals with a free slot")
}
