package roster

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	proSpecialty string
	proSchedule  string
	proFrom      string
	proTo        string
	proWorkDays  string
	proHired     string
)

var professionalAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a professional",
	Long: `Register a professional with a schedule type.

Schedule types: standard (10-20), morning (08-16), evening (14-22), or
custom with --from/--to.

Examples:
  slotwise professional add "Ana Lima" --specialty hair
  slotwise professional add "Bruno" --schedule custom --from 09:00 --to 13:00 --days mon,wed,fri`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		scheduleType, err := domain.ParseScheduleType(proSchedule)
		if err != nil {
			return cli.Describe(err)
		}
		workDays, err := domain.ParseWeekdays(proWorkDays)
		if err != nil {
			return cli.Describe(err)
		}

		in := domain.ProfessionalInput{
			Name:         args[0],
			Specialty:    proSpecialty,
			ScheduleType: scheduleType,
			WorkDays:     workDays,
		}
		if proFrom != "" || proTo != "" {
			from, err := cli.ParseTime(proFrom)
			if err != nil {
				return err
			}
			to, err := cli.ParseTime(proTo)
			if err != nil {
				return err
			}
			in.CustomWindow = &domain.Interval{Start: from, End: to}
		}
		if proHired != "" {
			if in.HireDate, err = cli.ParseDate(app, proHired); err != nil {
				return err
			}
		}

		id, err := app.RegisterProfessionalHandler.Handle(cmd.Context(), in)
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), map[string]any{"id": id})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Professional registered: %s\n", id)
		return nil
	},
}

var (
	listSpecialty string
	listAll       bool
)

var professionalListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List professionals",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		list, err := app.ListProfessionalsHandler.Handle(cmd.Context(), listSpecialty, !listAll)
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), list)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No professionals found.")
			return nil
		}
		for _, p := range list {
			window := string(p.ScheduleType)
			if p.CustomWindow != nil {
				window = p.CustomWindow.String()
			}
			status := ""
			if !p.Active {
				status = " (inactive)"
			}
			fmt.Fprintf(out, "%s  %-24s %-12s %-12s %s%s\n", p.ID, p.Name, p.Specialty, window, p.WorkDays, status)
		}
		return nil
	},
}

func init() {
	professionalAddCmd.Flags().StringVar(&proSpecialty, "specialty", "", "specialty, e.g. hair")
	professionalAddCmd.Flags().StringVar(&proSchedule, "schedule", "standard", "schedule type")
	professionalAddCmd.Flags().StringVar(&proFrom, "from", "", "custom window start (HH:MM)")
	professionalAddCmd.Flags().StringVar(&proTo, "to", "", "custom window end (HH:MM)")
	professionalAddCmd.Flags().StringVar(&proWorkDays, "days", "", "work days, e.g. mon,tue,wed (default every day)")
	professionalAddCmd.Flags().StringVar(&proHired, "hired", "", "hire date (YYYY-MM-DD)")

	professionalListCmd.Flags().StringVar(&listSpecialty, "specialty", "", "filter by specialty")
	professionalListCmd.Flags().BoolVar(&listAll, "all", false, "include inactive professionals")
}
