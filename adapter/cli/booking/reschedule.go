package booking

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var (
	rescheduleDate     string
	rescheduleStart    string
	rescheduleServices []string
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule <booking-id>",
	Short: "Move a booking or change its services",
	Long: `Move a pending or in-progress booking. The booking's own interval does
not count against the new placement.

Examples:
  slotwise booking reschedule 3c4d... --start 11:00
  slotwise booking reschedule 3c4d... --date 2024-01-16 --start 09:30 --service 2b7e...:2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		bookingID, err := cli.ParseID("booking", args[0])
		if err != nil {
			return err
		}
		current, err := app.GetBookingHandler.Handle(cmd.Context(), bookingID)
		if err != nil {
			return cli.Describe(err)
		}

		date := current.Date
		if rescheduleDate != "" {
			if date, err = cli.ParseDate(app, rescheduleDate); err != nil {
				return err
			}
		}
		start := current.Start
		if rescheduleStart != "" {
			if start, err = cli.ParseTime(rescheduleStart); err != nil {
				return err
			}
		}
		services, err := cli.ParseServices(rescheduleServices)
		if err != nil {
			return err
		}

		result, err := app.RescheduleBookingHandler.Handle(cmd.Context(), commands.RescheduleBookingCommand{
			ActorID:   app.ActorID,
			BookingID: bookingID,
			Date:      date,
			Start:     start,
			Services:  toServiceRequests(services),
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return writeBookingJSON(cmd, app, bookingID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Booking %s moved to %s %s (total %s)\n",
			result.BookingID, result.Date, result.Interval, cli.FormatPrice(result.TotalPrice))
		return nil
	},
}

func init() {
	rescheduleCmd.Flags().StringVarP(&rescheduleDate, "date", "d", "", "new date (default unchanged)")
	rescheduleCmd.Flags().StringVar(&rescheduleStart, "start", "", "new start time (default unchanged)")
	rescheduleCmd.Flags().StringSliceVar(&rescheduleServices, "service", nil, "replacement services, ID or ID:quantity")
}
