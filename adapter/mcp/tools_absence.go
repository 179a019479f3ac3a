package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
)

type absenceRecordInput struct {
	ProfessionalID  string `json:"professional_id" jsonschema:"required"`
	Date            string `json:"date,omitempty"`
	Kind            string `json:"kind" jsonschema:"required"`
	AbsentKind      string `json:"absent_kind,omitempty"`
	From            string `json:"from,omitempty"`
	To              string `json:"to,omitempty"`
	Arrival         string `json:"arrival,omitempty"`
	VacationDays    int    `json:"vacation_days,omitempty"`
	MedicalDocument string `json:"medical_document,omitempty"`
	Shift           string `json:"shift,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CancelBookings  bool   `json:"cancel_bookings,omitempty"`
}

type absenceVoidInput struct {
	AbsenceID string `json:"absence_id" jsonschema:"required"`
}

type absenceShowInput struct {
	AbsenceID      string `json:"absence_id,omitempty"`
	ProfessionalID string `json:"professional_id,omitempty"`
	Date           string `json:"date,omitempty"`
}

type absenceRecordOutput struct {
	Absence           *queries.AbsenceDTO `json:"absence"`
	CancelledBookings []uuid.UUID         `json:"cancelled_bookings"`
}

func (t *toolset) registerAbsenceTools(srv *mcp.Server) {
	srv.Tool("absence.record").
		Description("Record a late arrival, absence, vacation, medical leave or shift assignment").
		Handler(t.absenceRecord)

	srv.Tool("absence.void").
		Description("Void an absence record so the day becomes bookable again").
		Handler(t.absenceVoid)

	srv.Tool("absence.show").
		Description("Get an absence by ID, or the active record of a professional on a date").
		Handler(t.absenceShow)
}

func (t *toolset) absenceRecord(ctx context.Context, input absenceRecordInput) (*absenceRecordOutput, error) {
	professionalID, err := parseUUID(input.ProfessionalID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.app.Today())
	if err != nil {
		return nil, err
	}

	in := domain.AbsenceInput{
		ProfessionalID:  professionalID,
		Date:            date,
		Kind:            domain.AbsenceKind(input.Kind),
		AbsentKind:      domain.AbsentKind(input.AbsentKind),
		VacationDays:    input.VacationDays,
		MedicalDocument: input.MedicalDocument,
		Shift:           domain.Shift(input.Shift),
		Notes:           input.Notes,
	}
	if input.From != "" || input.To != "" {
		from, err := parseTime(input.From)
		if err != nil {
			return nil, err
		}
		to, err := parseTime(input.To)
		if err != nil {
			return nil, err
		}
		in.Partial = &domain.Interval{Start: from, End: to}
	}
	if input.Arrival != "" {
		arrival, err := parseTime(input.Arrival)
		if err != nil {
			return nil, err
		}
		in.Arrival = &arrival
	}

	result, err := t.app.RecordAbsenceHandler.Handle(ctx, commands.RecordAbsenceCommand{
		ActorID:        t.app.ActorID,
		AbsenceInput:   in,
		CancelBookings: input.CancelBookings,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	absence, err := t.app.GetAbsenceHandler.Handle(ctx, queries.GetAbsenceQuery{ID: &result.AbsenceID})
	if err != nil {
		return nil, cli.Describe(err)
	}
	cancelled := result.CancelledBookings
	if cancelled == nil {
		cancelled = []uuid.UUID{}
	}
	return &absenceRecordOutput{Absence: absence, CancelledBookings: cancelled}, nil
}

func (t *toolset) absenceVoid(ctx context.Context, input absenceVoidInput) (map[string]string, error) {
	id, err := parseUUID(input.AbsenceID)
	if err != nil {
		return nil, err
	}
	if err := t.app.VoidAbsenceHandler.Handle(ctx, commands.VoidAbsenceCommand{
		ActorID:   t.app.ActorID,
		AbsenceID: id,
	}); err != nil {
		return nil, cli.Describe(err)
	}
	return map[string]string{"status": "voided", "absence_id": id.String()}, nil
}

func (t *toolset) absenceShow(ctx context.Context, input absenceShowInput) (*queries.AbsenceDTO, error) {
	var query queries.GetAbsenceQuery
	switch {
	case input.AbsenceID != "":
		id, err := parseUUID(input.AbsenceID)
		if err != nil {
			return nil, err
		}
		query.ID = &id
	case input.ProfessionalID != "":
		professionalID, err := parseUUID(input.ProfessionalID)
		if err != nil {
			return nil, err
		}
		date, err := parseDate(input.Date, t.app.Today())
		if err != nil {
			return nil, err
		}
		query.ProfessionalID, query.Date = professionalID, date
	default:
		return nil, errors.New("absence_id or professional_id is required")
	}

	absence, err := t.app.GetAbsenceHandler.Handle(ctx, query)
	if err != nil {
		return nil, cli.Describe(err)
	}
	return absence, nil
}
