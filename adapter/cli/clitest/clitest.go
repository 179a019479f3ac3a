// Package clitest wires a SQLite-backed CLI app for command tests.
package clitest

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	internalApp "github.com/felixgeelhaar/slotwise/internal/app"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// Now is the fixed clock of every test app: Wednesday 2024-01-10 08:00 UTC.
var Now = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

// Monday is the first Monday after Now.
var Monday = domain.Date{Year: 2024, Month: time.January, Day: 15}

// Setup creates a local-mode app, installs it as the global CLI app and
// restores the previous state when the test ends.
func Setup(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                "test",
		LogLevel:              "error",
		Timezone:              "UTC",
		DatabaseDriver:        "sqlite",
		SQLitePath:            filepath.Join(t.TempDir(), "test.db"),
		EventBroker:           config.BrokerNone,
		OutboxPollInterval:    time.Second,
		OutboxBatchSize:       10,
		OutboxMaxRetries:      3,
		OutboxRetentionDays:   7,
		RefreshConcurrency:    2,
		SlotGranularity:       30,
		ClientDailyLimit:      3,
		VacationMinTenureDays: 180,
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger,
		internalApp.WithClock(sharedDomain.NewFixedClock(Now)))
	require.NoError(t, err)

	app := cli.NewApp(container)
	cli.SetApp(app)
	cli.SetLogger(logger)
	t.Cleanup(func() {
		cli.SetApp(nil)
		cli.SetJSONOutput(false)
		container.Close()
	})
	return app
}

// Roster is a professional, client and 30-minute service.
type Roster struct {
	Professional uuid.UUID
	Client       uuid.UUID
	Service      uuid.UUID
}

// Seed registers a hair professional working every day, a client and a
// 30-minute service priced 25.00.
func Seed(t *testing.T, app *cli.App) Roster {
	t.Helper()
	ctx := context.Background()

	professional, err := app.RegisterProfessionalHandler.Handle(ctx, domain.ProfessionalInput{Name: "Ana", Specialty: "hair"})
	require.NoError(t, err)
	client, err := app.RegisterClientHandler.Handle(ctx, "Maria")
	require.NoError(t, err)
	service, err := app.RegisterServiceHandler.Handle(ctx, commands.RegisterServiceCommand{Name: "Cut", DurationMinutes: 30, UnitPrice: 2500})
	require.NoError(t, err)

	return Roster{Professional: professional, Client: client, Service: service}
}

// Book creates a pending booking for the roster on Monday at start.
func Book(t *testing.T, app *cli.App, r Roster, start domain.TimeOfDay) uuid.UUID {
	t.Helper()
	result, err := app.CreateBookingHandler.Handle(context.Background(), commands.CreateBookingCommand{
		ClientID:       r.Client,
		ProfessionalID: r.Professional,
		Services:       []commands.ServiceRequest{{ServiceID: r.Service, Quantity: 1}},
		Date:           Monday,
		Start:          start,
	})
	require.NoError(t, err)
	return result.BookingID
}

// Run executes cmd.RunE with args and returns what it printed.
func Run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	defer cmd.SetOut(nil)

	err := cmd.RunE(cmd, args)
	return out.String(), err
}
