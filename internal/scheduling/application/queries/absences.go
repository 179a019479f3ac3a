package queries

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
)

// AbsenceDTO is a data transfer object for absence records.
type AbsenceDTO struct {
	ID              uuid.UUID          `json:"id"`
	ProfessionalID  uuid.UUID          `json:"professional_id"`
	Date            domain.Date        `json:"date"`
	Kind            domain.AbsenceKind `json:"kind"`
	AbsentKind      domain.AbsentKind  `json:"absent_kind,omitempty"`
	Partial         *domain.Interval   `json:"partial,omitempty"`
	Arrival         *domain.TimeOfDay  `json:"arrival,omitempty"`
	VacationDays    int                `json:"vacation_days,omitempty"`
	MedicalDocument string             `json:"medical_document,omitempty"`
	Shift           domain.Shift       `json:"shift,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	BlocksFullDay   bool               `json:"blocks_full_day"`
}

// ToAbsenceDTO converts a record into its transfer form.
func ToAbsenceDTO(a *domain.AbsenceRecord) AbsenceDTO {
	return AbsenceDTO{
		ID:              a.ID(),
		ProfessionalID:  a.ProfessionalID(),
		Date:            a.Date(),
		Kind:            a.Kind(),
		AbsentKind:      a.AbsentKind(),
		Partial:         a.Partial(),
		Arrival:         a.Arrival(),
		VacationDays:    a.VacationDays(),
		MedicalDocument: a.MedicalDocument(),
		Shift:           a.Shift(),
		Notes:           a.Notes(),
		BlocksFullDay:   a.BlocksFullDay(),
	}
}

// GetAbsenceQuery selects a record by id, or the active record of a
// professional on a date when ID is nil.
type GetAbsenceQuery struct {
	ID             *uuid.UUID
	ProfessionalID uuid.UUID
	Date           domain.Date
}

// GetAbsenceHandler handles the GetAbsenceQuery.
type GetAbsenceHandler struct {
	absences domain.AbsenceRepository
}

// NewGetAbsenceHandler creates a new GetAbsenceHandler.
func NewGetAbsenceHandler(absences domain.AbsenceRepository) *GetAbsenceHandler {
	return &GetAbsenceHandler{absences: absences}
}

// Handle returns the record or domain.ErrAbsenceNotFound.
func (h *GetAbsenceHandler) Handle(ctx context.Context, query GetAbsenceQuery) (*AbsenceDTO, error) {
	var (
		record *domain.AbsenceRecord
		err    error
	)
	if query.ID != nil {
		record, err = h.absences.FindByID(ctx, *query.ID)
	} else {
		if query.Date.IsZero() {
			return nil, domain.ErrInvalidDate
		}
		record, err = h.absences.FindActive(ctx, query.ProfessionalID, query.Date)
	}
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrAbsenceNotFound
	}
	dto := ToAbsenceDTO(record)
	return &dto, nil
}
