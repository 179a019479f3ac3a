package commands

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

// RefreshAvailabilityCommand recomputes stored snapshots for one date.
type RefreshAvailabilityCommand struct {
	Date      domain.Date
	Specialty string
}

// RefreshAvailabilityHandler handles the RefreshAvailabilityCommand.
type RefreshAvailabilityHandler struct {
	refresher *services.Refresher
}

// NewRefreshAvailabilityHandler creates a new RefreshAvailabilityHandler.
func NewRefreshAvailabilityHandler(refresher *services.Refresher) *RefreshAvailabilityHandler {
	return &RefreshAvailabilityHandler{refresher: refresher}
}

// Handle runs the refresh.
func (h *RefreshAvailabilityHandler) Handle(ctx context.Context, cmd RefreshAvailabilityCommand) (*services.RefreshResult, error) {
	if cmd.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	return h.refresher.Refresh(ctx, cmd.Date, cmd.Specialty)
}
