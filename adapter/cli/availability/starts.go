package availability

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	startsDate     string
	startsDuration int
	startsServices []string
	startsExclude  string
)

var startsCmd = &cobra.Command{
	Use:   "starts <professional-id>",
	Short: "List start times where a booking of a given length fits",
	Long: `List every start time at which a booking of the given duration fits.

The duration is either given directly or summed from the services.

Examples:
  slotwise availability starts 5f0c... --duration 90
  slotwise availability starts 5f0c... --service 2b7e...:2`,
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
		date, err := cli.ParseDate(app, startsDate)
		if err != nil {
			return err
		}
		services, err := cli.ParseServices(startsServices)
		if err != nil {
			return err
		}
		exclude, err := optionalID("booking", startsExclude)
		if err != nil {
			return err
		}

		result, err := app.AvailableStartsHandler.Handle(cmd.Context(), queries.AvailableStartsQuery{
			ProfessionalID:   professionalID,
			Date:             date,
			Duration:         startsDuration,
			Services:         toQuantities(services),
			ExcludeBookingID: exclude,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), result)
		}

		out := cmd.OutOrStdout()
		if len(result.Starts) == 0 {
			fmt.Fprintf(out, "No %d-minute opening on %s.\n", result.Duration, result.Date)
			return nil
		}
		starts := make([]string, len(result.Starts))
		for i, s := range result.Starts {
			starts[i] = s.String()
		}
		fmt.Fprintf(out, "%d-minute starts on %s: %s\n", result.Duration, result.Date, strings.Join(starts, " "))
		return nil
	},
}

var (
	checkProfessional string
	checkAdditional   []string
	checkClient       string
	checkDate         string
	checkStart        string
	checkDuration     int
	checkServices     []string
	checkExclude      string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a booking would be admitted",
	Long: `Run the admission rules for a prospective booking without creating it.

Examples:
  slotwise availability check --professional 5f0c... --start 10:00 --duration 60
  slotwise availability check --professional 5f0c... --client 9a1d... --start 14:30 --service 2b7e...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		professionalID, err := cli.ParseID("professional", checkProfessional)
		if err != nil {
			return err
		}
		additional, err := cli.ParseIDs("professional", checkAdditional)
		if err != nil {
			return err
		}
		clientID, err := optionalID("client", checkClient)
		if err != nil {
			return err
		}
		date, err := cli.ParseDate(app, checkDate)
		if err != nil {
			return err
		}
		start, err := cli.ParseTime(checkStart)
		if err != nil {
			return err
		}
		services, err := cli.ParseServices(checkServices)
		if err != nil {
			return err
		}
		exclude, err := optionalID("booking", checkExclude)
		if err != nil {
			return err
		}

		decision, err := app.CanBookHandler.Handle(cmd.Context(), queries.CanBookQuery{
			ProfessionalID:            professionalID,
			AdditionalProfessionalIDs: additional,
			ClientID:                  clientID,
			Date:                      date,
			Start:                     start,
			Duration:                  checkDuration,
			Services:                  toQuantities(services),
			ExcludeBookingID:          exclude,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), decision)
		}
		if decision.Allowed {
			fmt.Fprintf(cmd.OutOrStdout(), "Bookable: %s at %s\n", date, start)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Not bookable: %s (%s)\n", decision.Message, decision.Reason)
		return nil
	},
}

func optionalID(kind, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := cli.ParseID(kind, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func toQuantities(items []cli.ServiceArg) []queries.ServiceQuantity {
	out := make([]queries.ServiceQuantity, len(items))
	for i, it := range items {
		out[i] = queries.ServiceQuantity{ServiceID: it.ServiceID, Quantity: it.Quantity}
	}
	return out
}

func init() {
	startsCmd.Flags().StringVarP(&startsDate, "date", "d", "", "date (YYYY-MM-DD)")
	startsCmd.Flags().IntVar(&startsDuration, "duration", 0, "booking length in minutes")
	startsCmd.Flags().StringSliceVar(&startsServices, "service", nil, "service ID, optionally ID:quantity")
	startsCmd.Flags().StringVar(&startsExclude, "exclude", "", "booking ID to ignore, for reschedules")

	checkCmd.Flags().StringVar(&checkProfessional, "professional", "", "professional ID")
	checkCmd.Flags().StringSliceVar(&checkAdditional, "with", nil, "additional professional IDs")
	checkCmd.Flags().StringVar(&checkClient, "client", "", "client ID for overlap and daily limit checks")
	checkCmd.Flags().StringVarP(&checkDate, "date", "d", "", "date (YYYY-MM-DD)")
	checkCmd.Flags().StringVar(&checkStart, "start", "", "start time (HH:MM)")
	checkCmd.Flags().IntVar(&checkDuration, "duration", 0, "booking length in minutes")
	checkCmd.Flags().StringSliceVar(&checkServices, "service", nil, "service ID, optionally ID:quantity")
	checkCmd.Flags().StringVar(&checkExclude, "exclude", "", "booking ID to ignore, for reschedules")
	_ = checkCmd.MarkFlagRequired("professional")
	_ = checkCmd.MarkFlagRequired("start")
}
