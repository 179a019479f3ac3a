package app

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                "development",
		Timezone:              "UTC",
		DatabaseDriver:        "sqlite",
		SQLitePath:            filepath.Join(t.TempDir(), "slotwise.db"),
		EventBroker:           config.BrokerInProcess,
		OutboxPollInterval:    10 * time.Millisecond,
		OutboxBatchSize:       10,
		OutboxMaxRetries:      3,
		OutboxRetentionDays:   7,
		RefreshConcurrency:    2,
		SlotGranularity:       30,
		ClientDailyLimit:      3,
		VacationMinTenureDays: 180,
	}
}

func setupLocalContainer(t *testing.T, cfg *config.Config) (*Container, *observability.InMemoryMetrics) {
	t.Helper()
	metrics := observability.NewInMemoryMetrics()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	clock := sharedDomain.NewFixedClock(time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC))

	c, err := NewContainer(context.Background(), cfg, logger, WithClock(clock), WithMetrics(metrics))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, metrics
}

func TestLocalModeContainer(t *testing.T) {
	c, _ := setupLocalContainer(t, localConfig(t))

	assert.Equal(t, "sqlite", c.DBDriver.String())
	assert.Nil(t, c.SnapshotCache)
	assert.NotNil(t, c.EventBus)
	assert.NotNil(t, c.OutboxProcessor)
	assert.Equal(t, domain.Date{Year: 2024, Month: time.January, Day: 10}, c.Today())

	health := c.Health.GetOverallHealth(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
}

func TestLocalModeBookingWorkflow(t *testing.T) {
	ctx := context.Background()
	c, metrics := setupLocalContainer(t, localConfig(t))
	day := domain.Date{Year: 2024, Month: time.January, Day: 15}

	professionalID, err := c.RegisterProfessionalHandler.Handle(ctx, domain.ProfessionalInput{Name: "Ana", Specialty: "hair"})
	require.NoError(t, err)
	clientID, err := c.RegisterClientHandler.Handle(ctx, "Maria")
	require.NoError(t, err)
	serviceID, err := c.RegisterServiceHandler.Handle(ctx, commands.RegisterServiceCommand{Name: "Cut", DurationMinutes: 30, UnitPrice: 2500})
	require.NoError(t, err)

	refreshed, err := c.RefreshAvailabilityHandler.Handle(ctx, commands.RefreshAvailabilityCommand{Date: day})
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.Refreshed)

	_, err = c.CreateBookingHandler.Handle(ctx, commands.CreateBookingCommand{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		Services:       []commands.ServiceRequest{{ServiceID: serviceID, Quantity: 1}},
		Date:           day,
		Start:          domain.At(10, 0),
	})
	require.NoError(t, err)

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsConsumed,
		observability.T("routing_key", domain.RoutingKeyBookingCreated), observability.T("outcome", "ok")))

	a, err := c.GetAvailabilityHandler.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: professionalID, Date: day})
	require.NoError(t, err)
	assert.Equal(t, 19, a.Summary.Available)
	assert.False(t, a.Slots[0].Available)

	bookings, err := c.ListBookingsHandler.Handle(ctx, domain.BookingFilter{Date: &day})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestWindowCatalog(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		catalog, err := WindowCatalog(&config.Config{})
		require.NoError(t, err)
		iv, ok := catalog.Lookup(domain.ScheduleStandard)
		require.True(t, ok)
		assert.Equal(t, domain.Interval{Start: domain.At(10, 0), End: domain.At(20, 0)}, iv)
	})

	t.Run("overlays the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("windows:\n  morning: {start: \"07:00\", end: \"15:00\"}\n"), 0o600))

		catalog, err := WindowCatalog(&config.Config{ScheduleCatalogPath: path})
		require.NoError(t, err)
		morning, _ := catalog.Lookup(domain.ScheduleMorning)
		assert.Equal(t, domain.Interval{Start: domain.At(7, 0), End: domain.At(15, 0)}, morning)
		standard, _ := catalog.Lookup(domain.ScheduleStandard)
		assert.Equal(t, domain.At(10, 0), standard.Start)
	})

	t.Run("rejects unknown schedule types", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("windows:\n  night: {start: \"22:00\", end: \"23:00\"}\n"), 0o600))

		_, err := WindowCatalog(&config.Config{ScheduleCatalogPath: path})
		assert.Error(t, err)
	})
}

func TestWindowCatalog_MissingFile(t *testing.T) {
	_, err := WindowCatalog(&config.Config{ScheduleCatalogPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.ErrorContains(t, err, "SCHEDULE_CATALOG_PATH")
}

func TestNewContainer_ConfigErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	t.Run("malformed document key", func(t *testing.T) {
		cfg := localConfig(t)
		cfg.DocumentKey = "short"
		_, err := NewContainer(context.Background(), cfg, logger)
		assert.ErrorContains(t, err, "DOCUMENT_ENCRYPTION_KEY")
	})

	t.Run("suspicious sqlite path", func(t *testing.T) {
		cfg := localConfig(t)
		cfg.SQLitePath = "slotwise.db; rm -rf /"
		_, err := NewContainer(context.Background(), cfg, logger)
		assert.ErrorContains(t, err, "SQLITE_PATH")
	})
}

func TestLocalModeContainer_SealedDocuments(t *testing.T) {
	cfg := localConfig(t)
	cfg.DocumentKey = base64.StdEncoding.EncodeToString(make([]byte, 32))
	c, _ := setupLocalContainer(t, cfg)
	ctx := context.Background()

	professionalID, err := c.RegisterProfessionalHandler.Handle(ctx, domain.ProfessionalInput{Name: "Ana", Specialty: "hair"})
	require.NoError(t, err)

	result, err := c.RecordAbsenceHandler.Handle(ctx, commands.RecordAbsenceCommand{
		AbsenceInput: domain.AbsenceInput{
			ProfessionalID:  professionalID,
			Date:            domain.Date{Year: 2024, Month: time.January, Day: 15},
			Kind:            domain.AbsenceMedicalLeave,
			MedicalDocument: "cert-42",
		},
	})
	require.NoError(t, err)

	found, err := c.AbsenceRepo.FindByID(ctx, result.AbsenceID)
	require.NoError(t, err)
	assert.Equal(t, "cert-42", found.MedicalDocument())
}
