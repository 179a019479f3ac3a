package booking

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var statusReason string

var statusCmd = &cobra.Command{
	Use:   "status <booking-id> <status>",
	Short: "Move a booking to another status",
	Long: `Move a booking through its lifecycle:

  pending -> in_progress | cancelled
  in_progress -> completed | cancelled
  cancelled_by_absence -> pending (admitted again)

Examples:
  slotwise booking status 3c4d... in_progress
  slotwise booking status 3c4d... cancelled --reason "client called"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		bookingID, err := cli.ParseID("booking", args[0])
		if err != nil {
			return err
		}
		status := domain.BookingStatus(args[1])
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", args[1])
		}

		result, err := app.TransitionBookingHandler.Handle(cmd.Context(), commands.TransitionBookingCommand{
			ActorID:   app.ActorID,
			BookingID: bookingID,
			Status:    status,
			Reason:    statusReason,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return writeBookingJSON(cmd, app, bookingID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Booking %s: %s -> %s\n", result.BookingID, result.From, result.To)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusReason, "reason", "", "cancellation reason")
}
