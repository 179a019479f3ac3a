// Package cli is the slotwise command line: availability queries, bookings,
// absences and roster management on top of the application container.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Exit codes, one per error kind.
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitValidation = 2
	ExitNotFound   = 3
	ExitConflict   = 4
)

var (
	jsonOutput bool
	actorFlag  string
	logger     *slog.Logger
)

type startedAtKey struct{}

var rootCmd = &cobra.Command{
	Use:   "slotwise",
	Short: "Appointment availability and booking",
	Long: `slotwise computes bookable appointment slots for a roster of
professionals and admits bookings against them.

Availability honours work windows, absences and existing bookings.
Every booking is checked again inside its own transaction.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		ctx := observability.NewRequestContext(cmd.Context(), uuid.NewString())
		cmd.SetContext(context.WithValue(ctx, startedAtKey{}, time.Now()))
		Logger().DebugContext(ctx, "command start", "command", cmd.CommandPath())

		if actorFlag == "" || app == nil {
			return nil
		}
		id, err := uuid.Parse(actorFlag)
		if err != nil {
			return sharedDomain.NewFieldError("actor", "must be a UUID")
		}
		app.SetActorID(id)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		started, ok := cmd.Context().Value(startedAtKey{}).(time.Time)
		if !ok {
			return
		}
		Logger().DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	},
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return ExitCode(err)
}

// ExitCode maps err onto the exit code of its kind.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch sharedDomain.KindOf(err) {
	case sharedDomain.KindValidation:
		return ExitValidation
	case sharedDomain.KindNotFound:
		return ExitNotFound
	case sharedDomain.KindConflict:
		return ExitConflict
	default:
		return ExitInternal
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "print results as JSON")
	flags.StringVar(&actorFlag, "actor", "", "actor ID recorded on events")
}

// AddCommand attaches a command group to the root.
func AddCommand(cmd *cobra.Command) { rootCmd.AddCommand(cmd) }

func SetLogger(l *slog.Logger) { logger = l }

// Logger is the CLI logger, slog.Default until SetLogger is called.
func Logger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
