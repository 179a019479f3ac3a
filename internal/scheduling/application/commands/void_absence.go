package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	"github.com/google/uuid"
)

// VoidAbsenceCommand soft-deletes an absence record.
type VoidAbsenceCommand struct {
	ActorID   uuid.UUID
	AbsenceID uuid.UUID
}

// VoidAbsenceHandler handles the VoidAbsenceCommand.
type VoidAbsenceHandler struct {
	deps AbsenceDeps
}

// NewVoidAbsenceHandler creates a new VoidAbsenceHandler.
func NewVoidAbsenceHandler(deps AbsenceDeps) *VoidAbsenceHandler {
	return &VoidAbsenceHandler{deps: deps}
}

// Handle voids the record. Bookings cancelled by it stay cancelled until
// they are moved back to pending.
func (h *VoidAbsenceHandler) Handle(ctx context.Context, cmd VoidAbsenceCommand) error {
	var affected []domain.SnapshotKey

	err := sharedApplication.AfterCommit(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		record, err := h.deps.Absences.FindByID(txCtx, cmd.AbsenceID)
		if err != nil {
			return err
		}
		if err := h.deps.Professionals.LockForBooking(txCtx, []uuid.UUID{record.ProfessionalID()}); err != nil {
			return fmt.Errorf("failed to lock professional: %w", err)
		}
		if err := record.Void(h.deps.Clock.Now()); err != nil {
			return err
		}
		if err := h.deps.Absences.Save(txCtx, record); err != nil {
			return err
		}
		if err := sharedApplication.RecordEvents(txCtx, h.deps.Outbox, record.DomainEvents(), sharedApplication.NewEventMetadata(cmd.ActorID)); err != nil {
			return err
		}
		record.ClearDomainEvents()

		affected = []domain.SnapshotKey{{ProfessionalID: record.ProfessionalID(), Date: record.Date()}}
		return nil
	}, h.deps.invalidateHook(&affected))
	if err != nil {
		return err
	}

	h.deps.logger().InfoContext(ctx, "absence voided", "absence_id", cmd.AbsenceID)
	return nil
}
