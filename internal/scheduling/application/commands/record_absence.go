package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// AbsenceDeps bundles the collaborators of the absence command handlers.
type AbsenceDeps struct {
	Absences      domain.AbsenceRepository
	Professionals domain.ProfessionalRepository
	Bookings      domain.BookingRepository
	Outbox        outbox.Repository
	UnitOfWork    sharedApplication.UnitOfWork
	Invalidator   *services.SnapshotInvalidator
	Policy        domain.AbsencePolicy
	Clock         sharedDomain.Clock
	Logger        *slog.Logger
}

func (d AbsenceDeps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d AbsenceDeps) invalidateHook(keys *[]domain.SnapshotKey) func(ctx context.Context) {
	if d.Invalidator == nil {
		return func(context.Context) {}
	}
	return d.Invalidator.AfterCommitHook(func() []domain.SnapshotKey { return *keys })
}

// RecordAbsenceCommand contains the data needed to record an absence.
type RecordAbsenceCommand struct {
	ActorID uuid.UUID
	domain.AbsenceInput
	// CancelBookings moves the day's active bookings to cancelled_by_absence
	// when the record blocks the whole day.
	CancelBookings bool
}

// RecordAbsenceResult contains the result of recording an absence.
type RecordAbsenceResult struct {
	AbsenceID         uuid.UUID
	Kind              domain.AbsenceKind
	BlocksFullDay     bool
	CancelledBookings []uuid.UUID
}

// RecordAbsenceHandler handles the RecordAbsenceCommand.
type RecordAbsenceHandler struct {
	deps AbsenceDeps
}

// NewRecordAbsenceHandler creates a new RecordAbsenceHandler.
func NewRecordAbsenceHandler(deps AbsenceDeps) *RecordAbsenceHandler {
	return &RecordAbsenceHandler{deps: deps}
}

// Handle records the absence. A professional has at most one active record per date.
func (h *RecordAbsenceHandler) Handle(ctx context.Context, cmd RecordAbsenceCommand) (*RecordAbsenceResult, error) {
	var (
		result   *RecordAbsenceResult
		affected []domain.SnapshotKey
	)

	err := sharedApplication.AfterCommit(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		if err := h.deps.Professionals.LockForBooking(txCtx, []uuid.UUID{cmd.ProfessionalID}); err != nil {
			return fmt.Errorf("failed to lock professional: %w", err)
		}
		professional, err := h.deps.Professionals.FindByID(txCtx, cmd.ProfessionalID)
		if err != nil {
			return err
		}

		existing, err := h.deps.Absences.FindActive(txCtx, cmd.ProfessionalID, cmd.Date)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s already has a %s record on %s",
				domain.ErrAbsenceExists, professional.Name(), existing.Kind(), cmd.Date)
		}

		record, err := domain.NewAbsenceRecord(cmd.AbsenceInput, professional, h.deps.Policy, h.deps.Clock.Now())
		if err != nil {
			return err
		}
		if err := h.deps.Absences.Save(txCtx, record); err != nil {
			return err
		}
		metadata := sharedApplication.NewEventMetadata(cmd.ActorID)
		if err := sharedApplication.RecordEvents(txCtx, h.deps.Outbox, record.DomainEvents(), metadata); err != nil {
			return err
		}
		record.ClearDomainEvents()

		affected = []domain.SnapshotKey{{ProfessionalID: professional.ID(), Date: cmd.Date}}
		result = &RecordAbsenceResult{
			AbsenceID:     record.ID(),
			Kind:          record.Kind(),
			BlocksFullDay: record.BlocksFullDay(),
		}

		if !cmd.CancelBookings || !record.BlocksFullDay() {
			return nil
		}
		cancelled, keys, err := h.cancelDay(txCtx, record, metadata)
		if err != nil {
			return err
		}
		result.CancelledBookings = cancelled
		affected = domain.MergeKeys(affected, keys)
		return nil
	}, h.deps.invalidateHook(&affected))
	if err != nil {
		return nil, err
	}

	h.deps.logger().InfoContext(ctx, "absence recorded",
		"absence_id", result.AbsenceID,
		"professional_id", cmd.ProfessionalID,
		"date", cmd.Date.String(),
		"kind", string(result.Kind),
		"cancelled_bookings", len(result.CancelledBookings),
	)
	return result, nil
}

func (h *RecordAbsenceHandler) cancelDay(ctx context.Context, record *domain.AbsenceRecord, metadata sharedDomain.EventMetadata) ([]uuid.UUID, []domain.SnapshotKey, error) {
	active, err := h.deps.Bookings.FindActiveForProfessional(ctx, record.ProfessionalID(), record.Date(), nil)
	if err != nil {
		return nil, nil, err
	}

	reason := fmt.Sprintf("Professional absent on %s (%s)", record.Date(), record.Kind())
	var (
		ids  []uuid.UUID
		keys []domain.SnapshotKey
	)
	for _, ab := range active {
		booking, err := h.deps.Bookings.FindByID(ctx, ab.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := booking.Transition(domain.StatusCancelledByAbsence, reason, h.deps.Clock.Now()); err != nil {
			return nil, nil, err
		}
		if err := h.deps.Bookings.Save(ctx, booking); err != nil {
			return nil, nil, err
		}
		if err := sharedApplication.RecordEvents(ctx, h.deps.Outbox, booking.DomainEvents(), metadata); err != nil {
			return nil, nil, err
		}
		booking.ClearDomainEvents()
		ids = append(ids, booking.ID())
		keys = domain.MergeKeys(keys, booking.SnapshotKeys())
	}
	return ids, keys, nil
}
