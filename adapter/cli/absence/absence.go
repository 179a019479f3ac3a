package absence

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the absence command group
var Cmd = &cobra.Command{
	Use:   "absence",
	Short: "Record and void professional absences",
	Long:  `Record late arrivals, absences, vacation, medical leave and shift assignments. Each professional has at most one active record per date.`,
}

func init() {
	Cmd.AddCommand(recordCmd)
	Cmd.AddCommand(voidCmd)
	Cmd.AddCommand(showCmd)
}

func printAbsence(w io.Writer, a *queries.AbsenceDTO) {
	fmt.Fprintf(w, "Absence %s\n", a.ID)
	fmt.Fprintf(w, "  Professional: %s\n", a.ProfessionalID)
	fmt.Fprintf(w, "  Date:         %s\n", a.Date)
	fmt.Fprintf(w, "  Kind:         %s", a.Kind)
	if a.AbsentKind != "" {
		fmt.Fprintf(w, " (%s)", a.AbsentKind)
	}
	fmt.Fprintln(w)
	if a.Partial != nil {
		fmt.Fprintf(w, "  Hours:        %s\n", a.Partial)
	}
	if a.Arrival != nil {
		fmt.Fprintf(w, "  Arrival:      %s\n", a.Arrival)
	}
	if a.VacationDays > 0 {
		fmt.Fprintf(w, "  Days:         %d\n", a.VacationDays)
	}
	if a.Shift != "" {
		fmt.Fprintf(w, "  Shift:        %s\n", a.Shift)
	}
	if a.Notes != "" {
		fmt.Fprintf(w, "  Notes:        %s\n", a.Notes)
	}
	fmt.Fprintf(w, "  Full day:     %t\n", a.BlocksFullDay)
}
