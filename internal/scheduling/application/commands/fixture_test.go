package commands_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	testDay = domain.Date{Year: 2024, Month: time.January, Day: 15}
)

// fixture wires the command handlers to a SQLite file database.
type fixture struct {
	conn          database.Connection
	clock         *sharedDomain.FixedClock
	professionals *persistence.ProfessionalRepository
	clients       *persistence.ClientRepository
	services      *persistence.ServiceRepository
	absences      *persistence.AbsenceRepository
	bookings      *persistence.BookingRepository
	snapshots     *persistence.SnapshotRepository
	outbox        *outbox.SQLRepository

	create     *commands.CreateBookingHandler
	reschedule *commands.RescheduleBookingHandler
	transition *commands.TransitionBookingHandler
	record     *commands.RecordAbsenceHandler
	void       *commands.VoidAbsenceHandler

	registerProfessional *commands.RegisterProfessionalHandler
	registerClient       *commands.RegisterClientHandler
	registerService      *commands.RegisterServiceHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "slotwise.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)

	f := &fixture{
		conn:          conn,
		clock:         sharedDomain.NewFixedClock(testNow),
		professionals: persistence.NewProfessionalRepository(conn),
		clients:       persistence.NewClientRepository(conn),
		services:      persistence.NewServiceRepository(conn),
		absences:      persistence.NewAbsenceRepository(conn),
		bookings:      persistence.NewBookingRepository(conn),
		snapshots:     persistence.NewSnapshotRepository(conn),
		outbox:        outbox.NewSQLRepository(conn),
	}

	uow := database.NewUnitOfWork(conn)
	catalog := domain.DefaultWindowCatalog()
	invalidator := services.NewSnapshotInvalidator(f.snapshots, nil, nil)
	admission := services.NewAdmissionChecker(
		f.professionals,
		f.bookings,
		services.NewAbsenceResolver(f.absences),
		services.AdmissionConfig{Catalog: catalog},
		nil,
		nil,
	)

	bookingDeps := commands.BookingDeps{
		Bookings:      f.bookings,
		Professionals: f.professionals,
		Clients:       f.clients,
		Services:      f.services,
		Admission:     admission,
		Outbox:        f.outbox,
		UnitOfWork:    uow,
		Invalidator:   invalidator,
		Clock:         f.clock,
	}
	absenceDeps := commands.AbsenceDeps{
		Absences:      f.absences,
		Professionals: f.professionals,
		Bookings:      f.bookings,
		Outbox:        f.outbox,
		UnitOfWork:    uow,
		Invalidator:   invalidator,
		Policy:        domain.DefaultAbsencePolicy(),
		Clock:         f.clock,
	}

	f.create = commands.NewCreateBookingHandler(bookingDeps)
	f.reschedule = commands.NewRescheduleBookingHandler(bookingDeps)
	f.transition = commands.NewTransitionBookingHandler(bookingDeps)
	f.record = commands.NewRecordAbsenceHandler(absenceDeps)
	f.void = commands.NewVoidAbsenceHandler(absenceDeps)
	f.registerProfessional = commands.NewRegisterProfessionalHandler(f.professionals, f.clock, nil)
	f.registerClient = commands.NewRegisterClientHandler(f.clients, f.clock)
	f.registerService = commands.NewRegisterServiceHandler(f.services, f.clock)
	return f
}

func (f *fixture) professional(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id, err := f.registerProfessional.Handle(context.Background(), domain.ProfessionalInput{
		Name:     name,
		HireDate: domain.Date{Year: 2020, Month: time.January, Day: 6},
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) client(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id, err := f.registerClient.Handle(context.Background(), name)
	require.NoError(t, err)
	return id
}

func (f *fixture) service(t *testing.T, minutes int, price int64) uuid.UUID {
	t.Helper()
	id, err := f.registerService.Handle(context.Background(), commands.RegisterServiceCommand{
		Name:            "Service",
		DurationMinutes: minutes,
		UnitPrice:       price,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) book(ctx context.Context, clientID, professionalID, serviceID uuid.UUID, start domain.TimeOfDay) (*commands.CreateBookingResult, error) {
	return f.create.Handle(ctx, commands.CreateBookingCommand{
		ClientID:       clientID,
		ProfessionalID: professionalID,
		Services:       []commands.ServiceRequest{{ServiceID: serviceID, Quantity: 1}},
		Date:           testDay,
		Start:          start,
	})
}

func (f *fixture) pendingEvents(t *testing.T) []string {
	t.Helper()
	msgs, err := f.outbox.GetUnpublished(context.Background(), 100)
	require.NoError(t, err)
	keys := make([]string, len(msgs))
	for i, m := range msgs {
		keys[i] = m.RoutingKey
	}
	return keys
}
