package booking

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <booking-id>",
	Short: "Show a booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		bookingID, err := cli.ParseID("booking", args[0])
		if err != nil {
			return err
		}
		if cli.JSONOutput() {
			return writeBookingJSON(cmd, app, bookingID)
		}
		b, err := app.GetBookingHandler.Handle(cmd.Context(), bookingID)
		if err != nil {
			return cli.Describe(err)
		}
		printBooking(cmd.OutOrStdout(), b)
		return nil
	},
}

var (
	listProfessional string
	listClient       string
	listDate         string
	listStatus       string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List bookings",
	Long: `List bookings filtered by professional, client, date or status.

Examples:
  slotwise booking list --date 2024-01-15
  slotwise booking list --client 9a1d... --status pending`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}

		var filter domain.BookingFilter
		if listProfessional != "" {
			id, err := cli.ParseID("professional", listProfessional)
			if err != nil {
				return err
			}
			filter.ProfessionalID = &id
		}
		if listClient != "" {
			id, err := cli.ParseID("client", listClient)
			if err != nil {
				return err
			}
			filter.ClientID = &id
		}
		if listDate != "" {
			date, err := cli.ParseDate(app, listDate)
			if err != nil {
				return err
			}
			filter.Date = &date
		}
		filter.Status = domain.BookingStatus(listStatus)

		bookings, err := app.ListBookingsHandler.Handle(cmd.Context(), filter)
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), bookings)
		}

		out := cmd.OutOrStdout()
		if len(bookings) == 0 {
			fmt.Fprintln(out, "No bookings found.")
			return nil
		}
		for _, b := range bookings {
			printRow(out, b)
		}
		fmt.Fprintf(out, "\n%d bookings\n", len(bookings))
		return nil
	},
}

func writeBookingJSON(cmd *cobra.Command, app *cli.App, id uuid.UUID) error {
	b, err := app.GetBookingHandler.Handle(cmd.Context(), id)
	if err != nil {
		return cli.Describe(err)
	}
	return cli.PrintJSON(cmd.OutOrStdout(), b)
}

func init() {
	listCmd.Flags().StringVar(&listProfessional, "professional", "", "filter by professional ID")
	listCmd.Flags().StringVar(&listClient, "client", "", "filter by client ID")
	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "filter by date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
}
