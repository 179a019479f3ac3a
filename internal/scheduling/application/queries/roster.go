package queries

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ProfessionalDTO is a data transfer object for professionals.
type ProfessionalDTO struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Specialty    string              `json:"specialty"`
	Active       bool                `json:"active"`
	ScheduleType domain.ScheduleType `json:"schedule_type"`
	CustomWindow *domain.Interval    `json:"custom_window,omitempty"`
	WorkDays     string              `json:"work_days"`
	HireDate     *domain.Date        `json:"hire_date,omitempty"`
}

// ToProfessionalDTO converts a professional into its transfer form.
func ToProfessionalDTO(p *domain.Professional) ProfessionalDTO {
	dto := ProfessionalDTO{
		ID:           p.ID(),
		Name:         p.Name(),
		Specialty:    p.Specialty(),
		Active:       p.IsActive(),
		ScheduleType: p.ScheduleType(),
		WorkDays:     p.WorkDays().String(),
	}
	if w, ok := p.CustomWindow(); ok {
		dto.CustomWindow = &w
	}
	if hd := p.HireDate(); !hd.IsZero() {
		dto.HireDate = &hd
	}
	return dto
}

// ListProfessionalsHandler lists the roster.
type ListProfessionalsHandler struct {
	professionals domain.ProfessionalRepository
}

// NewListProfessionalsHandler creates a new ListProfessionalsHandler.
func NewListProfessionalsHandler(professionals domain.ProfessionalRepository) *ListProfessionalsHandler {
	return &ListProfessionalsHandler{professionals: professionals}
}

// Handle lists every professional, or only active ones of specialty when
// activeOnly is set.
func (h *ListProfessionalsHandler) Handle(ctx context.Context, specialty string, activeOnly bool) ([]ProfessionalDTO, error) {
	var (
		professionals []*domain.Professional
		err           error
	)
	if activeOnly || specialty != "" {
		professionals, err = h.professionals.ListActive(ctx, specialty)
	} else {
		professionals, err = h.professionals.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := make([]ProfessionalDTO, len(professionals))
	for i, p := range professionals {
		out[i] = ToProfessionalDTO(p)
	}
	return out, nil
}
