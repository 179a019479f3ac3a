package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the booking and its event", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		maria := f.client(t, "Maria")
		cut := f.service(t, 30, 2500)

		result, err := f.create.Handle(ctx, commands.CreateBookingCommand{
			ClientID:       maria,
			ProfessionalID: ana,
			Services:       []commands.ServiceRequest{{ServiceID: cut, Quantity: 2}},
			Date:           testDay,
			Start:          domain.At(10, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Interval{Start: domain.At(10, 0), End: domain.At(11, 0)}, result.Interval)
		assert.Equal(t, int64(5000), result.TotalPrice)
		assert.Equal(t, domain.StatusPending, result.Status)

		stored, err := f.bookings.FindByID(ctx, result.BookingID)
		require.NoError(t, err)
		assert.Equal(t, maria, stored.ClientID())
		assert.Equal(t, testDay, stored.Date())

		assert.Equal(t, []string{domain.RoutingKeyBookingCreated}, f.pendingEvents(t))
	})

	t.Run("rejects an occupied slot", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 30, 2500)

		_, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
		require.NoError(t, err)

		_, err = f.book(ctx, f.client(t, "Lucia"), ana, cut, domain.At(10, 15))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
		assert.Equal(t, sharedDomain.KindConflict, sharedDomain.KindOf(err))

		var admissionErr *domain.AdmissionError
		require.True(t, errors.As(err, &admissionErr))
		assert.Equal(t, domain.ReasonBookingConflict, admissionErr.Reason)
	})

	t.Run("rejects a client booked elsewhere at the same time", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		ben := f.professional(t, "Ben")
		maria := f.client(t, "Maria")
		cut := f.service(t, 30, 2500)

		_, err := f.book(ctx, maria, ana, cut, domain.At(10, 0))
		require.NoError(t, err)

		_, err = f.book(ctx, maria, ben, cut, domain.At(10, 0))
		assert.ErrorIs(t, err, domain.ErrClientDoubleBooked)
	})

	t.Run("caps a client at three bookings per day", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		maria := f.client(t, "Maria")
		cut := f.service(t, 30, 2500)

		for _, start := range []domain.TimeOfDay{domain.At(10, 0), domain.At(11, 0), domain.At(12, 0)} {
			_, err := f.book(ctx, maria, ana, cut, start)
			require.NoError(t, err)
		}

		_, err := f.book(ctx, maria, ana, cut, domain.At(14, 0))
		assert.ErrorIs(t, err, domain.ErrClientDailyLimit)
	})

	t.Run("rejects time outside the work window", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 60, 2500)

		_, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(19, 30))
		assert.ErrorIs(t, err, domain.ErrOutsideWorkWindow)
		assert.Empty(t, f.pendingEvents(t))
	})

	t.Run("rejects unknown participants", func(t *testing.T) {
		f := newFixture(t)
		cut := f.service(t, 30, 2500)

		_, err := f.book(ctx, uuid.New(), f.professional(t, "Ana"), cut, domain.At(10, 0))
		assert.ErrorIs(t, err, domain.ErrClientNotFound)

		_, err = f.book(ctx, f.client(t, "Maria"), uuid.New(), cut, domain.At(10, 0))
		assert.ErrorIs(t, err, domain.ErrProfessionalNotFound)
		assert.Equal(t, sharedDomain.KindNotFound, sharedDomain.KindOf(err))
	})

	t.Run("requires services", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.create.Handle(ctx, commands.CreateBookingCommand{
			ClientID:       f.client(t, "Maria"),
			ProfessionalID: f.professional(t, "Ana"),
			Date:           testDay,
			Start:          domain.At(10, 0),
		})
		assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))
	})
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.professional(t, "Ana")
	cut := f.service(t, 30, 2500)
	clients := []uuid.UUID{f.client(t, "Maria"), f.client(t, "Lucia")}

	var wg sync.WaitGroup
	errs := make([]error, len(clients))
	for i, clientID := range clients {
		wg.Add(1)
		go func(i int, clientID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.book(ctx, clientID, ana, cut, domain.At(10, 0))
		}(i, clientID)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrSlotUnavailable):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	active, err := f.bookings.FindActiveForProfessional(ctx, ana, testDay, nil)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCreateBooking_InvalidatesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.professional(t, "Ana")
	cut := f.service(t, 30, 2500)

	professional, err := f.professionals.FindByID(ctx, ana)
	require.NoError(t, err)
	slots := []domain.Slot{{Start: domain.At(10, 0), End: domain.At(10, 30), Available: true}}
	snapshot := domain.NewSnapshot(&domain.Availability{
		Professional: professional.Summary(),
		Date:         testDay,
		WorkWindow:   domain.WorkWindow{Type: domain.ScheduleStandard, Interval: domain.Interval{Start: domain.At(10, 0), End: domain.At(20, 0)}},
		Slots:        slots,
		Summary:      domain.Summarize(slots),
	}, testNow)
	require.NoError(t, f.snapshots.Upsert(ctx, snapshot))

	_, err = f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
	require.NoError(t, err)

	found, err := f.snapshots.Find(ctx, snapshot.Key())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRescheduleBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("may overlap its own previous interval", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 30, 2500)
		created, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
		require.NoError(t, err)

		result, err := f.reschedule.Handle(ctx, commands.RescheduleBookingCommand{
			BookingID: created.BookingID,
			Date:      testDay,
			Start:     domain.At(10, 0),
			Services:  []commands.ServiceRequest{{ServiceID: cut, Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Interval{Start: domain.At(10, 0), End: domain.At(11, 0)}, result.Interval)
		assert.Equal(t, int64(5000), result.TotalPrice)

		stored, err := f.bookings.FindByID(ctx, created.BookingID)
		require.NoError(t, err)
		assert.Equal(t, 60, stored.Duration())
		assert.ElementsMatch(t, []string{domain.RoutingKeyBookingCreated, domain.RoutingKeyBookingRescheduled}, f.pendingEvents(t))
	})

	t.Run("keeps lines and moves to another day", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 45, 2500)
		created, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
		require.NoError(t, err)

		next := testDay.AddDays(1)
		result, err := f.reschedule.Handle(ctx, commands.RescheduleBookingCommand{
			BookingID: created.BookingID,
			Date:      next,
			Start:     domain.At(15, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, next, result.Date)
		assert.Equal(t, domain.Interval{Start: domain.At(15, 0), End: domain.At(15, 45)}, result.Interval)
	})

	t.Run("rejects a slot held by another booking", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 30, 2500)
		_, err := f.book(ctx, f.client(t, "Lucia"), ana, cut, domain.At(11, 0))
		require.NoError(t, err)
		created, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
		require.NoError(t, err)

		_, err = f.reschedule.Handle(ctx, commands.RescheduleBookingCommand{
			BookingID: created.BookingID,
			Date:      testDay,
			Start:     domain.At(11, 0),
		})
		assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

		stored, err := f.bookings.FindByID(ctx, created.BookingID)
		require.NoError(t, err)
		assert.Equal(t, domain.At(10, 0), stored.Start())
	})

	t.Run("rejects a finished booking", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 30, 2500)
		created, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
		require.NoError(t, err)
		_, err = f.transition.Handle(ctx, commands.TransitionBookingCommand{
			BookingID: created.BookingID,
			Status:    domain.StatusCancelled,
			Reason:    "client request",
		})
		require.NoError(t, err)

		_, err = f.reschedule.Handle(ctx, commands.RescheduleBookingCommand{
			BookingID: created.BookingID,
			Date:      testDay,
			Start:     domain.At(12, 0),
		})
		assert.ErrorIs(t, err, domain.ErrBookingNotEditable)
	})
}

func TestTransitionBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.professional(t, "Ana")
	cut := f.service(t, 30, 2500)
	created, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
	require.NoError(t, err)

	result, err := f.transition.Handle(ctx, commands.TransitionBookingCommand{
		BookingID: created.BookingID,
		Status:    domain.StatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, result.From)
	assert.Equal(t, domain.StatusInProgress, result.To)

	_, err = f.transition.Handle(ctx, commands.TransitionBookingCommand{
		BookingID: created.BookingID,
		Status:    domain.StatusPending,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.transition.Handle(ctx, commands.TransitionBookingCommand{
		BookingID: created.BookingID,
		Status:    domain.StatusCompleted,
	})
	require.NoError(t, err)

	stored, err := f.bookings.FindByID(ctx, created.BookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status())
	require.NotNil(t, stored.CompletedAt())

	_, err = f.transition.Handle(ctx, commands.TransitionBookingCommand{
		BookingID: uuid.New(),
		Status:    domain.StatusCancelled,
	})
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestRecordAbsence(t *testing.T) {
	ctx := context.Background()

	t.Run("full day absence cancels the day's bookings", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 30, 2500)
		first, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
		require.NoError(t, err)
		second, err := f.book(ctx, f.client(t, "Lucia"), ana, cut, domain.At(12, 0))
		require.NoError(t, err)

		result, err := f.record.Handle(ctx, commands.RecordAbsenceCommand{
			AbsenceInput: domain.AbsenceInput{
				ProfessionalID: ana,
				Date:           testDay,
				Kind:           domain.AbsenceAbsent,
				AbsentKind:     domain.AbsentFullDay,
			},
			CancelBookings: true,
		})
		require.NoError(t, err)
		assert.True(t, result.BlocksFullDay)
		assert.ElementsMatch(t, []uuid.UUID{first.BookingID, second.BookingID}, result.CancelledBookings)

		for _, id := range result.CancelledBookings {
			stored, err := f.bookings.FindByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCancelledByAbsence, stored.Status())
			assert.Equal(t, "Professional absent on 2024-01-15 (absent)", stored.CancellationReason())
		}

		_, err = f.book(ctx, f.client(t, "Rosa"), ana, cut, domain.At(15, 0))
		assert.ErrorIs(t, err, domain.ErrAbsenceConflict)
	})

	t.Run("leaves bookings alone without the flag", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 30, 2500)
		created, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
		require.NoError(t, err)

		result, err := f.record.Handle(ctx, commands.RecordAbsenceCommand{
			AbsenceInput: domain.AbsenceInput{
				ProfessionalID: ana,
				Date:           testDay,
				Kind:           domain.AbsenceAbsent,
				AbsentKind:     domain.AbsentFullDay,
			},
		})
		require.NoError(t, err)
		assert.Empty(t, result.CancelledBookings)

		stored, err := f.bookings.FindByID(ctx, created.BookingID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, stored.Status())
	})

	t.Run("partial hours block only their interval", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		cut := f.service(t, 30, 2500)

		_, err := f.record.Handle(ctx, commands.RecordAbsenceCommand{
			AbsenceInput: domain.AbsenceInput{
				ProfessionalID: ana,
				Date:           testDay,
				Kind:           domain.AbsenceAbsent,
				AbsentKind:     domain.AbsentPartialHours,
				Partial:        &domain.Interval{Start: domain.At(12, 0), End: domain.At(14, 0)},
			},
		})
		require.NoError(t, err)

		_, err = f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(13, 0))
		assert.ErrorIs(t, err, domain.ErrAbsenceConflict)

		_, err = f.book(ctx, f.client(t, "Lucia"), ana, cut, domain.At(14, 0))
		assert.NoError(t, err)
	})

	t.Run("rejects a second record for the date", func(t *testing.T) {
		f := newFixture(t)
		ana := f.professional(t, "Ana")
		in := domain.AbsenceInput{
			ProfessionalID: ana,
			Date:           testDay,
			Kind:           domain.AbsenceAbsent,
			AbsentKind:     domain.AbsentFullDay,
		}
		_, err := f.record.Handle(ctx, commands.RecordAbsenceCommand{AbsenceInput: in})
		require.NoError(t, err)

		_, err = f.record.Handle(ctx, commands.RecordAbsenceCommand{AbsenceInput: in})
		assert.ErrorIs(t, err, domain.ErrAbsenceExists)
		assert.Equal(t, sharedDomain.KindConflict, sharedDomain.KindOf(err))
	})
}

func TestVoidAbsence_ReactivatesThroughAdmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.professional(t, "Ana")
	cut := f.service(t, 30, 2500)
	first, err := f.book(ctx, f.client(t, "Maria"), ana, cut, domain.At(10, 0))
	require.NoError(t, err)
	second, err := f.book(ctx, f.client(t, "Lucia"), ana, cut, domain.At(12, 0))
	require.NoError(t, err)

	recorded, err := f.record.Handle(ctx, commands.RecordAbsenceCommand{
		AbsenceInput: domain.AbsenceInput{
			ProfessionalID: ana,
			Date:           testDay,
			Kind:           domain.AbsenceAbsent,
			AbsentKind:     domain.AbsentFullDay,
		},
		CancelBookings: true,
	})
	require.NoError(t, err)
	require.Len(t, recorded.CancelledBookings, 2)

	require.NoError(t, f.void.Handle(ctx, commands.VoidAbsenceCommand{AbsenceID: recorded.AbsenceID}))
	assert.ErrorIs(t, f.void.Handle(ctx, commands.VoidAbsenceCommand{AbsenceID: recorded.AbsenceID}), domain.ErrAbsenceAlreadyVoided)

	stored, err := f.bookings.FindByID(ctx, first.BookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelledByAbsence, stored.Status())

	_, err = f.book(ctx, f.client(t, "Rosa"), ana, cut, domain.At(10, 0))
	require.NoError(t, err)

	_, err = f.transition.Handle(ctx, commands.TransitionBookingCommand{
		BookingID: first.BookingID,
		Status:    domain.StatusPending,
	})
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	result, err := f.transition.Handle(ctx, commands.TransitionBookingCommand{
		BookingID: second.BookingID,
		Status:    domain.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelledByAbsence, result.From)
	assert.Equal(t, domain.StatusPending, result.To)

	reactivated, err := f.bookings.FindByID(ctx, second.BookingID)
	require.NoError(t, err)
	assert.Empty(t, reactivated.CancellationReason())
}

func TestRegisterHandlers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.registerProfessional.Handle(ctx, domain.ProfessionalInput{Name: " "})
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))

	_, err = f.registerClient.Handle(ctx, "")
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))

	_, err = f.registerService.Handle(ctx, commands.RegisterServiceCommand{Name: "Cut", DurationMinutes: 0, UnitPrice: 100})
	assert.Equal(t, sharedDomain.KindValidation, sharedDomain.KindOf(err))

	id := f.service(t, 30, 1500)
	svc, err := f.services.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 30, svc.DurationMinutes())
}
