package availability

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

// Cmd is the availability command group
var Cmd = &cobra.Command{
	Use:     "availability",
	Aliases: []string{"avail"},
	Short:   "Inspect and refresh bookable slots",
	Long:    `Show free and blocked slots per professional, find the next open day, and check a booking before making it.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(rangeCmd)
	Cmd.AddCommand(nextCmd)
	Cmd.AddCommand(specialtyCmd)
	Cmd.AddCommand(startsCmd)
	Cmd.AddCommand(checkCmd)
	Cmd.AddCommand(refreshCmd)
}

func printAvailability(w io.Writer, a *domain.Availability, freeOnly bool) {
	fmt.Fprintf(w, "%s (%s) on %s\n", a.Professional.Name, a.Professional.Specialty, a.Date.Time().Format("Monday, January 2, 2006"))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "  Window: %s (%s)\n", a.WorkWindow.Interval, a.WorkWindow.Type)

	for _, slot := range a.Slots {
		if freeOnly && !slot.Available {
			continue
		}
		if slot.Available {
			fmt.Fprintf(w, "  [ ] %s - %s\n", slot.Start, slot.End)
			continue
		}
		fmt.Fprintf(w, "  [x] %s - %s  %s\n", slot.Start, slot.End, slot.BlockedReason)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Total: %d | Available: %d | Blocked: %d\n", a.Summary.Total, a.Summary.Available, a.Summary.Blocked)
}
