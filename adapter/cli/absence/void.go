package absence

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var voidCmd = &cobra.Command{
	Use:   "void <absence-id>",
	Short: "Void an absence record",
	Long: `Void an absence record so the professional's normal schedule applies again.

Bookings cancelled because of the absence stay cancelled; move them back
with 'slotwise booking status <id> pending'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		absenceID, err := cli.ParseID("absence", args[0])
		if err != nil {
			return err
		}
		if err := app.VoidAbsenceHandler.Handle(cmd.Context(), commands.VoidAbsenceCommand{
			ActorID:   app.ActorID,
			AbsenceID: absenceID,
		}); err != nil {
			return cli.Describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Absence %s voided.\n", absenceID)
		return nil
	},
}

var showDate string

var showCmd = &cobra.Command{
	Use:   "show <absence-id | professional-id>",
	Short: "Show an absence by ID, or a professional's record for a date",
	Long: `Show an absence record.

With --date the argument is a professional ID and the active record for
that date is shown.

Examples:
  slotwise absence show 8e21...
  slotwise absence show 5f0c... --date 2024-01-15`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		id, err := cli.ParseID("record", args[0])
		if err != nil {
			return err
		}

		query := queries.GetAbsenceQuery{ID: &id}
		if showDate != "" {
			date, err := cli.ParseDate(app, showDate)
			if err != nil {
				return err
			}
			query = queries.GetAbsenceQuery{ProfessionalID: id, Date: date}
		}

		record, err := app.GetAbsenceHandler.Handle(cmd.Context(), query)
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), record)
		}
		printAbsence(cmd.OutOrStdout(), record)
		return nil
	},
}

func init() {
	showCmd.Flags().StringVarP(&showDate, "date", "d", "", "look up the professional's record on this date")
}
