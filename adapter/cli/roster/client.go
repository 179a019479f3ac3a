package roster

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var clientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a client",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		id, err := app.RegisterClientHandler.Handle(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), map[string]any{"id": id})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Client registered: %s\n", id)
		return nil
	},
}

var (
	serviceDuration int
	servicePrice    int64
)

var serviceAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a service to the catalogue",
	Long: `Add a service with its duration and unit price in cents.

Examples:
  slotwise service add "Haircut" --duration 30 --price 2500`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Require()
		if err != nil {
			return err
		}
		id, err := app.RegisterServiceHandler.Handle(cmd.Context(), commands.RegisterServiceCommand{
			Name:            strings.Join(args, " "),
			DurationMinutes: serviceDuration,
			UnitPrice:       servicePrice,
		})
		if err != nil {
			return cli.Describe(err)
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), map[string]any{"id": id})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Service added: %s\n", id)
		return nil
	},
}

func init() {
	serviceAddCmd.Flags().IntVar(&serviceDuration, "duration", 0, "duration in minutes")
	serviceAddCmd.Flags().Int64Var(&servicePrice, "price", 0, "unit price in cents")
	_ = serviceAddCmd.MarkFlagRequired("duration")
}
