package booking

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the booking command group
var Cmd = &cobra.Command{
	Use:   "booking",
	Short: "Create and manage bookings",
	Long:  `Create, reschedule and move bookings through their lifecycle. Every change is admitted against live data.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(rescheduleCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}

func toServiceRequests(items []cli.ServiceArg) []commands.ServiceRequest {
	if len(items) == 0 {
		return nil
	}
	out := make([]commands.ServiceRequest, len(items))
	for i, it := range items {
		out[i] = commands.ServiceRequest{ServiceID: it.ServiceID, Quantity: it.Quantity}
	}
	return out
}

func printBooking(w io.Writer, b *queries.BookingDTO) {
	fmt.Fprintf(w, "Booking %s\n", b.ID)
	fmt.Fprintf(w, "  When:    %s %s - %s (%dm)\n", b.Date, b.Start, b.End, b.DurationMinutes)
	fmt.Fprintf(w, "  Status:  %s\n", b.Status)
	fmt.Fprintf(w, "  Client:  %s\n", b.ClientID)
	fmt.Fprintf(w, "  With:    %s\n", b.ProfessionalID)
	for _, id := range b.AdditionalProfessionalIDs {
		fmt.Fprintf(w, "           %s\n", id)
	}
	for _, line := range b.Lines {
		fmt.Fprintf(w, "  - %s x%d  %s\n", line.Name, line.Quantity, cli.FormatPrice(line.UnitPrice*int64(line.Quantity)))
	}
	fmt.Fprintf(w, "  Total:   %s\n", cli.FormatPrice(b.TotalPrice))
	if b.Notes != "" {
		fmt.Fprintf(w, "  Notes:   %s\n", b.Notes)
	}
	if b.CancellationReason != "" {
		fmt.Fprintf(w, "  Reason:  %s\n", b.CancellationReason)
	}
}

func printRow(w io.Writer, b queries.BookingDTO) {
	fmt.Fprintf(w, "%s  %s %s-%s  %-20s %s\n",
		b.ID, b.Date, b.Start, b.End, b.Status, cli.FormatPrice(b.TotalPrice))
}
