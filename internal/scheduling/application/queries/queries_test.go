package queries_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	day = domain.Date{Year: 2024, Month: time.January, Day: 15}
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[domain.SnapshotKey]*domain.Snapshot
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[domain.SnapshotKey]*domain.Snapshot{}}
}

func (c *memoryCache) Get(_ context.Context, key domain.SnapshotKey) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("connection refused")
	}
	return c.entries[key], nil
}

func (c *memoryCache) Set(_ context.Context, s *domain.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[s.Key()] = s
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, keys ...domain.SnapshotKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// movingCounter behaves as if an invalidation lands between every two reads.
type movingCounter struct {
	n uint64
}

func (c *movingCounter) Generation() uint64 {
	c.n++
	return c.n
}

type store struct {
	professionals *persistence.ProfessionalRepository
	clients       *persistence.ClientRepository
	services      *persistence.ServiceRepository
	absences      *persistence.AbsenceRepository
	bookings      *persistence.BookingRepository
	snapshots     *persistence.SnapshotRepository

	calculator *services.Calculator
	admission  *services.AdmissionChecker
	cache      *memoryCache
	metrics    *observability.InMemoryMetrics
	get        *queries.GetAvailabilityHandler
}

func newStore(t *testing.T) *store {
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

	s := &store{
		professionals: persistence.NewProfessionalRepository(conn),
		clients:       persistence.NewClientRepository(conn),
		services:      persistence.NewServiceRepository(conn),
		absences:      persistence.NewAbsenceRepository(conn),
		bookings:      persistence.NewBookingRepository(conn),
		snapshots:     persistence.NewSnapshotRepository(conn),
		cache:         newMemoryCache(),
		metrics:       observability.NewInMemoryMetrics(),
	}
	absenceResolver := services.NewAbsenceResolver(s.absences)
	s.calculator, err = services.NewCalculator(
		s.professionals,
		absenceResolver,
		services.NewBookingResolver(s.bookings),
		services.DefaultCalculatorConfig(),
		nil,
		nil,
	)
	require.NoError(t, err)
	s.admission = services.NewAdmissionChecker(
		s.professionals,
		s.bookings,
		absenceResolver,
		services.AdmissionConfig{Catalog: domain.DefaultWindowCatalog()},
		nil,
		nil,
	)
	s.get = queries.NewGetAvailabilityHandler(s.calculator, s.snapshots, s.cache, sharedDomain.NewFixedClock(now), nil, s.metrics)
	return s
}

func (s *store) professional(t *testing.T, in domain.ProfessionalInput) *domain.Professional {
	t.Helper()
	p, err := domain.NewProfessional(in, now)
	require.NoError(t, err)
	require.NoError(t, s.professionals.Save(context.Background(), p))
	return p
}

func (s *store) booking(t *testing.T, p *domain.Professional, date domain.Date, start domain.TimeOfDay, minutes int) *domain.Booking {
	t.Helper()
	ctx := context.Background()
	c, err := domain.NewClient("Maria", now)
	require.NoError(t, err)
	require.NoError(t, s.clients.Save(ctx, c))
	svc, err := domain.NewService("Cut", minutes, 2500, now)
	require.NoError(t, err)
	require.NoError(t, s.services.Save(ctx, svc))
	line, err := domain.NewServiceLine(svc, 1)
	require.NoError(t, err)

	b, err := domain.NewBooking(domain.BookingInput{
		ClientID:       c.ID(),
		ProfessionalID: p.ID(),
		Lines:          []domain.ServiceLine{line},
		Date:           date,
		Start:          start,
	}, now)
	require.NoError(t, err)
	require.NoError(t, s.bookings.Save(ctx, b))
	return b
}

func TestGetAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("computes on a miss and fills the cache", func(t *testing.T) {
		s := newStore(t)
		ana := s.professional(t, domain.ProfessionalInput{Name: "Ana", Specialty: "hair"})
		s.booking(t, ana, day, domain.At(10, 0), 60)

		a, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		assert.Equal(t, ana.Summary(), a.Professional)
		assert.Equal(t, domain.Summary{Total: 20, Available: 18, Blocked: 2}, a.Summary)
		assert.False(t, a.Slots[0].Available)
		assert.Equal(t, domain.BlockBooking, a.Slots[0].BlockedCategory)

		key := domain.SnapshotKey{ProfessionalID: ana.ID(), Date: day}
		cached, err := s.cache.Get(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, a.Summary, cached.Summary)
		assert.Equal(t, int64(1), s.metrics.GetCounter(observability.MetricSnapshotCache, observability.T("result", "miss")))

		stored, err := s.snapshots.Find(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("skips the cache fill when an invalidation ran meanwhile", func(t *testing.T) {
		s := newStore(t)
		ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
		s.get.WithInvalidations(&movingCounter{})

		a, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		assert.Equal(t, 20, a.Summary.Available)

		cached, err := s.cache.Get(ctx, domain.SnapshotKey{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		assert.Nil(t, cached)
		assert.Equal(t, int64(1), s.metrics.GetCounter(observability.MetricSnapshotCache, observability.T("result", "stale_fill_skipped")))
	})

	t.Run("fills the cache when no invalidation ran", func(t *testing.T) {
		s := newStore(t)
		ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
		s.get.WithInvalidations(services.NewSnapshotInvalidator(s.snapshots, s.cache, nil))

		_, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)

		cached, err := s.cache.Get(ctx, domain.SnapshotKey{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		assert.NotNil(t, cached)
	})

	t.Run("serves a cached snapshot", func(t *testing.T) {
		s := newStore(t)
		ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})

		_, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		s.booking(t, ana, day, domain.At(10, 0), 30)

		a, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		assert.Equal(t, 20, a.Summary.Available)
		assert.Equal(t, int64(1), s.metrics.GetCounter(observability.MetricSnapshotCache, observability.T("result", "hit")))

		fresh, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day, Fresh: true})
		require.NoError(t, err)
		assert.Equal(t, 19, fresh.Summary.Available)
	})

	t.Run("falls back to the stored snapshot", func(t *testing.T) {
		s := newStore(t)
		ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
		slots := []domain.Slot{{Start: domain.At(10, 0), End: domain.At(10, 30), Available: true}}
		snapshot := domain.NewSnapshot(&domain.Availability{
			Professional: ana.Summary(),
			Date:         day,
			WorkWindow:   domain.WorkWindow{Type: domain.ScheduleStandard, Interval: domain.Interval{Start: domain.At(10, 0), End: domain.At(10, 30)}},
			Slots:        slots,
			Summary:      domain.Summarize(slots),
		}, now)
		require.NoError(t, s.snapshots.Upsert(ctx, snapshot))

		a, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		assert.Equal(t, slots, a.Slots)
		assert.Equal(t, int64(1), s.metrics.GetCounter(observability.MetricSnapshotCache, observability.T("result", "stored")))

		cached, err := s.cache.Get(ctx, snapshot.Key())
		require.NoError(t, err)
		assert.NotNil(t, cached)
	})

	t.Run("treats a cache failure as a miss", func(t *testing.T) {
		s := newStore(t)
		ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
		s.cache.failGet = true

		a, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: ana.ID(), Date: day})
		require.NoError(t, err)
		assert.Equal(t, 20, a.Summary.Total)
	})

	t.Run("rejects a missing date and unknown professional", func(t *testing.T) {
		s := newStore(t)
		_, err := s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrInvalidDate)

		_, err = s.get.Handle(ctx, queries.GetAvailabilityQuery{ProfessionalID: uuid.New(), Date: day})
		assert.ErrorIs(t, err, domain.ErrProfessionalNotFound)
	})
}

func TestAvailabilityRange(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
	h := queries.NewAvailabilityRangeHandler(s.get)

	out, err := h.Handle(ctx, queries.AvailabilityRangeQuery{ProfessionalID: ana.ID(), From: day, To: day.AddDays(2)})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, day.AddDays(2), out[2].Date)

	_, err = h.Handle(ctx, queries.AvailabilityRangeQuery{ProfessionalID: ana.ID(), From: day, To: day.AddDays(-1)})
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))

	_, err = h.Handle(ctx, queries.AvailabilityRangeQuery{ProfessionalID: ana.ID(), From: day, To: day.AddDays(queries.MaxRangeDays)})
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))
}

func TestNextAvailable(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ana := s.professional(t, domain.ProfessionalInput{Name: "Ana", WorkDays: domain.NewWeekdays(time.Monday)})
	s.booking(t, ana, day, domain.At(10, 0), 60)

	out, err := queries.NewNextAvailableHandler(s.get).Handle(ctx, queries.NextAvailableQuery{
		ProfessionalID: ana.ID(),
		From:           day,
		Count:          2,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, queries.AvailableDay{Date: day, AvailableSlots: 18, FirstFree: domain.At(11, 0)}, out[0])
	assert.Equal(t, day.AddDays(7), out[1].Date)
	assert.Equal(t, domain.At(10, 0), out[1].FirstFree)
}

func TestAvailabilityBySpecialty(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ana := s.professional(t, domain.ProfessionalInput{Name: "Ana", Specialty: "hair"})
	s.professional(t, domain.ProfessionalInput{Name: "Ben", Specialty: "hair", WorkDays: domain.NewWeekdays(time.Tuesday)})
	s.professional(t, domain.ProfessionalInput{Name: "Carla", Specialty: "nails"})
	h := queries.NewAvailabilityBySpecialtyHandler(s.professionals, s.get)

	all, err := h.Handle(ctx, queries.AvailabilityBySpecialtyQuery{Specialty: "hair", Date: day})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana", all[0].Professional.Name)
	assert.Equal(t, "Ben", all[1].Professional.Name)
	assert.False(t, all[1].HasAvailableSlot())

	free, err := h.Handle(ctx, queries.AvailabilityBySpecialtyQuery{Specialty: "hair", Date: day, OnlyAvailable: true})
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, ana.ID(), free[0].Professional.ID)

	_, err = h.Handle(ctx, queries.AvailabilityBySpecialtyQuery{Date: day})
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))
}

func TestAvailableStarts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ana := s.professional(t, domain.ProfessionalInput{Name: "Ana", ScheduleType: domain.ScheduleCustom, CustomWindow: &domain.Interval{Start: domain.At(10, 0), End: domain.At(12, 0)}})
	booked := s.booking(t, ana, day, domain.At(10, 30), 30)
	h := queries.NewAvailableStartsHandler(s.calculator, s.services)

	result, err := h.Handle(ctx, queries.AvailableStartsQuery{ProfessionalID: ana.ID(), Date: day, Duration: 60})
	require.NoError(t, err)
	assert.Equal(t, 60, result.Duration)
	assert.Equal(t, []domain.TimeOfDay{domain.At(11, 0)}, result.Starts)

	id := booked.ID()
	result, err = h.Handle(ctx, queries.AvailableStartsQuery{ProfessionalID: ana.ID(), Date: day, Duration: 60, ExcludeBookingID: &id})
	require.NoError(t, err)
	assert.Equal(t, []domain.TimeOfDay{domain.At(10, 0), domain.At(10, 30), domain.At(11, 0)}, result.Starts)

	svc := booked.Lines()[0].ServiceID
	result, err = h.Handle(ctx, queries.AvailableStartsQuery{
		ProfessionalID: ana.ID(),
		Date:           day,
		Services:       []queries.ServiceQuantity{{ServiceID: svc, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, 90, result.Duration)
	assert.Empty(t, result.Starts)
}

func TestCanBook(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
	s.booking(t, ana, day, domain.At(10, 0), 30)
	h := queries.NewCanBookHandler(s.admission, s.services)

	decision, err := h.Handle(ctx, queries.CanBookQuery{ProfessionalID: ana.ID(), Date: day, Start: domain.At(10, 0), Duration: 30})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonBookingConflict, decision.Reason)

	decision, err = h.Handle(ctx, queries.CanBookQuery{ProfessionalID: ana.ID(), Date: day, Start: domain.At(10, 30), Duration: 30})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, err = h.Handle(ctx, queries.CanBookQuery{ProfessionalID: ana.ID(), Start: domain.At(10, 30), Duration: 30})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestBookingQueries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
	first := s.booking(t, ana, day, domain.At(11, 0), 30)
	second := s.booking(t, ana, day, domain.At(10, 0), 45)

	dto, err := queries.NewGetBookingHandler(s.bookings).Handle(ctx, first.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.At(11, 30), dto.End)
	assert.Equal(t, int64(2500), dto.TotalPrice)

	_, err = queries.NewGetBookingHandler(s.bookings).Handle(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	list := queries.NewListBookingsHandler(s.bookings)
	id := ana.ID()
	out, err := list.Handle(ctx, domain.BookingFilter{ProfessionalID: &id, Status: domain.StatusPending})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, second.ID(), out[0].ID)

	_, err = list.Handle(ctx, domain.BookingFilter{Status: "unknown"})
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))
}

func TestGetAbsence(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ana := s.professional(t, domain.ProfessionalInput{Name: "Ana"})
	record, err := domain.NewAbsenceRecord(domain.AbsenceInput{
		ProfessionalID: ana.ID(),
		Date:           day,
		Kind:           domain.AbsenceAbsent,
		AbsentKind:     domain.AbsentFullDay,
	}, ana, domain.DefaultAbsencePolicy(), now)
	require.NoError(t, err)
	require.NoError(t, s.absences.Save(ctx, record))

	h := queries.NewGetAbsenceHandler(s.absences)
	byDate, err := h.Handle(ctx, queries.GetAbsenceQuery{ProfessionalID: ana.ID(), Date: day})
	require.NoError(t, err)
	assert.Equal(t, record.ID(), byDate.ID)
	assert.True(t, byDate.BlocksFullDay)

	id := record.ID()
	byID, err := h.Handle(ctx, queries.GetAbsenceQuery{ID: &id})
	require.NoError(t, err)
	assert.Equal(t, byDate, byID)

	_, err = h.Handle(ctx, queries.GetAbsenceQuery{ProfessionalID: ana.ID(), Date: day.AddDays(1)})
	assert.ErrorIs(t, err, domain.ErrAbsenceNotFound)
}

func TestListProfessionals(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	s.professional(t, domain.ProfessionalInput{Name: "Ben", Specialty: "hair"})
	s.professional(t, domain.ProfessionalInput{Name: "Ana", Specialty: "hair"})
	s.professional(t, domain.ProfessionalInput{Name: "Carla", Specialty: "nails"})

	h := queries.NewListProfessionalsHandler(s.professionals)
	hair, err := h.Handle(ctx, "hair", true)
	require.NoError(t, err)
	require.Len(t, hair, 2)
	assert.Equal(t, "Ana", hair[0].Name)

	all, err := h.Handle(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
