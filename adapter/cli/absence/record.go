package absence

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	recordDate     string
	recordKind     string
	recordAbsent   string
	recordFrom     string
	recordTo       string
	recordArrival  string
	recordDays     int
	recordDocument string
	recordShift    string
	recordNotes    string
	recordCancel   bool
)

var recordCmd = &cobra.Command{
	Use:   "record <professional-id>",
	Short: "Record an absence for a professional",
	Long: `Record an exception to a professional's schedule on one date.

Kinds:
  late_arrival      --arrival HH:MM
  absent            --absent full_day | partial_hours (--from/--to)
  vacation          --days N (subject to minimum tenure)
  medical_leave     --document REF
  shift_assignment  --shift opening | closing

Examples:
  slotwise absence record 5f0c... --kind late_arrival --arrival 11:30
  slotwise absence record 5f0c... --kind absent --absent full_day --cancel-bookings
  slotwise absence record 5f0c... --kind absent --absent partial_hours --from 12:00 --to 14:00`,
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
		date, err := cli.ParseDate(app, recordDate)
		if err != nil {
			return err
		}

		in := domain.AbsenceInput{
			ProfessionalID:  professionalID,
			Date:            date,
			Kind:            domain.AbsenceKind(recordKind),
			AbsentKind:      domain.AbsentKind(recordAbsent),
			VacationDays:    recordDays,
			MedicalDocument: recordDocument,
			Shift:           domain.Shift(recordShift),
			Notes:           recordNotes,
		}
		if recordFrom != "" || recordTo != "" {
			from, err := cli.ParseTime(recordFrom)
			if err != nil {
				return err
			}
			to, err := cli.ParseTime(recordTo)
			if err != nil {
				return err
			}
			in.Partial = &domain.Interval{Start: from, End: to}
		}
		if recordArrival != "" {
			arrival, err := cli.ParseTime(recordArrival)
			if err != nil {
				return err
			}
			in.Arrival = &arrival
		}

		result, err := app.RecordAbsenceHandler.Handle(cmd.Context(), commands.RecordAbsenceCommand{
			ActorID:        app.ActorID,
			AbsenceInput:   in,
			CancelBookings: recordCancel,
		})
		if err != nil {
			return cli.Describe(err)
		}

		record, err := app.GetAbsenceHandler.Handle(cmd.Context(), queries.GetAbsenceQuery{ID: &result.AbsenceID})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), map[string]any{
				"absence":            record,
				"cancelled_bookings": result.CancelledBookings,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Absence recorded!")
		printAbsence(out, record)
		if len(result.CancelledBookings) > 0 {
			fmt.Fprintf(out, "Cancelled %d bookings:\n", len(result.CancelledBookings))
			for _, id := range result.CancelledBookings {
				fmt.Fprintf(out, "  %s\n", id)
			}
		}
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordDate, "date", "d", "", "date (YYYY-MM-DD, default today)")
	recordCmd.Flags().StringVar(&recordKind, "kind", "", "absence kind")
	recordCmd.Flags().StringVar(&recordAbsent, "absent", "", "full_day or partial_hours, for kind absent")
	recordCmd.Flags().StringVar(&recordFrom, "from", "", "partial absence start (HH:MM)")
	recordCmd.Flags().StringVar(&recordTo, "to", "", "partial absence end (HH:MM)")
	recordCmd.Flags().StringVar(&recordArrival, "arrival", "", "arrival time for late_arrival (HH:MM)")
	recordCmd.Flags().IntVar(&recordDays, "days", 0, "vacation days")
	recordCmd.Flags().StringVar(&recordDocument, "document", "", "medical document reference")
	recordCmd.Flags().StringVar(&recordShift, "shift", "", "opening or closing, for shift_assignment")
	recordCmd.Flags().StringVar(&recordNotes, "notes", "", "free-form notes")
	recordCmd.Flags().BoolVar(&recordCancel, "cancel-bookings", false, "cancel the day's bookings when the record blocks the whole day")
	_ = recordCmd.MarkFlagRequired("kind")
}
