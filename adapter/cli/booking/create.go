package booking

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var (
	createClient       string
	createProfessional string
	createAdditional   []string
	createServices     []string
	createDate         string
	createStart        string
	createNotes        string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Book services with a professional",
	Long: `Create a booking. The booking is admitted inside its own transaction, so
it fails if the slot was taken since availability was last shown.

Examples:
  slotwise booking create --client 9a1d... --professional 5f0c... --service 2b7e... --start 10:00
  slotwise booking create --client 9a1d... --professional 5f0c... --with 77aa... --service 2b7e...:2 --date 2024-01-15 --start 14:30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		clientID, err := cli.ParseID("client", createClient)
		if err != nil {
			return err
		}
		professionalID, err := cli.ParseID("professional", createProfessional)
		if err != nil {
			return err
		}
		additional, err := cli.ParseIDs("professional", createAdditional)
		if err != nil {
			return err
		}
		services, err := cli.ParseServices(createServices)
		if err != nil {
			return err
		}
		date, err := cli.ParseDate(app, createDate)
		if err != nil {
			return err
		}
		start, err := cli.ParseTime(createStart)
		if err != nil {
			return err
		}

		result, err := app.CreateBookingHandler.Handle(cmd.Context(), commands.CreateBookingCommand{
			ActorID:                   app.ActorID,
			ClientID:                  clientID,
			ProfessionalID:            professionalID,
			AdditionalProfessionalIDs: additional,
			Services:                  toServiceRequests(services),
			Date:                      date,
			Start:                     start,
			Notes:                     createNotes,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return writeBookingJSON(cmd, app, result.BookingID)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Booking created!")
		fmt.Fprintf(out, "  ID:     %s\n", result.BookingID)
		fmt.Fprintf(out, "  When:   %s %s\n", date, result.Interval)
		fmt.Fprintf(out, "  Total:  %s\n", cli.FormatPrice(result.TotalPrice))
		fmt.Fprintf(out, "  Status: %s\n", result.Status)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createClient, "client", "", "client ID")
	createCmd.Flags().StringVar(&createProfessional, "professional", "", "primary professional ID")
	createCmd.Flags().StringSliceVar(&createAdditional, "with", nil, "additional professional IDs")
	createCmd.Flags().StringSliceVar(&createServices, "service", nil, "service ID, optionally ID:quantity")
	createCmd.Flags().StringVarP(&createDate, "date", "d", "", "date (YYYY-MM-DD, default today)")
	createCmd.Flags().StringVar(&createStart, "start", "", "start time (HH:MM)")
	createCmd.Flags().StringVar(&createNotes, "notes", "", "free-form notes")
	_ = createCmd.MarkFlagRequired("client")
	_ = createCmd.MarkFlagRequired("professional")
	_ = createCmd.MarkFlagRequired("service")
	_ = createCmd.MarkFlagRequired("start")
}
