package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

type availabilityInput struct {
	ProfessionalID string `json:"professional_id" jsonschema:"required"`
	Date           string `json:"date,omitempty"`
	Fresh          bool   `json:"fresh,omitempty"`
}

type availabilityRangeInput struct {
	ProfessionalID string `json:"professional_id" jsonschema:"required"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
}

type nextAvailableInput struct {
	ProfessionalID string `json:"professional_id" jsonschema:"required"`
	From           string `json:"from,omitempty"`
	Count          int    `json:"count,omitempty"`
}

type specialtyInput struct {
	Specialty     string `json:"specialty" jsonschema:"required"`
	Date          string `json:"date,omitempty"`
	OnlyAvailable bool   `json:"only_available,omitempty"`
}

type startsInput struct {
	ProfessionalID   string         `json:"professional_id" jsonschema:"required"`
	Date             string         `json:"date,omitempty"`
	DurationMinutes  int            `json:"duration_minutes,omitempty"`
	Services         []serviceInput `json:"services,omitempty"`
	ExcludeBookingID string         `json:"exclude_booking_id,omitempty"`
}

type checkInput struct {
	ProfessionalID            string         `json:"professional_id" jsonschema:"required"`
	AdditionalProfessionalIDs []string       `json:"additional_professional_ids,omitempty"`
	ClientID                  string         `json:"client_id,omitempty"`
	Date                      string         `json:"date,omitempty"`
	Start                     string         `json:"start" jsonschema:"required"`
	DurationMinutes           int            `json:"duration_minutes,omitempty"`
	Services                  []serviceInput `json:"services,omitempty"`
	ExcludeBookingID          string         `json:"exclude_booking_id,omitempty"`
}

type refreshInput struct {
	Date      string `json:"date,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

type availabilityListOutput struct {
	Days []*domain.Availability `json:"days"`
}

type nextAvailableOutput struct {
	Days []queries.AvailableDay `json:"days"`
}

type specialtyOutput struct {
	Date          domain.Date            `json:"date"`
	Professionals []*domain.Availability `json:"professionals"`
	Total         int                    `json:"total"`
}

func (t *toolset) registerAvailabilityTools(srv *mcp.Server) {
	srv.Tool("availability.show").
		Description("Get the slot grid of a professional for a date").
		Handler(t.availabilityShow)

	srv.Tool("availability.range").
		Description("Get the slot grids of a professional for a date range (default 7 days)").
		Handler(t.availabilityRange)

	srv.Tool("availability.next").
		Description("Find the next days on which a professional has free slots").
		Handler(t.availabilityNext)

	srv.Tool("availability.specialty").
		Description("Get availability of every active professional in a specialty").
		Handler(t.availabilitySpecialty)

	srv.Tool("availability.starts").
		Description("List start times where a service duration fits").
		Handler(t.availabilityStarts)

	srv.Tool("availability.check").
		Description("Check whether a booking would be admitted without creating it").
		Handler(t.availabilityCheck)

	srv.Tool("availability.refresh").
		Description("Recompute and store availability snapshots for a date").
		Handler(t.availabilityRefresh)
}

func (t *toolset) availabilityShow(ctx context.Context, input availabilityInput) (*domain.Availability, error) {
	professionalID, err := parseUUID(input.ProfessionalID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.app.Today())
	if err != nil {
		return nil, err
	}
	availability, err := t.app.GetAvailabilityHandler.Handle(ctx, queries.GetAvailabilityQuery{
		ProfessionalID: professionalID,
		Date:           date,
		Fresh:          input.Fresh,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return availability, nil
}

func (t *toolset) availabilityRange(ctx context.Context, input availabilityRangeInput) (*availabilityListOutput, error) {
	professionalID, err := parseUUID(input.ProfessionalID)
	if err != nil {
		return nil, err
	}
	from, err := parseDate(input.From, t.app.Today())
	if err != nil {
		return nil, err
	}
	to, err := parseDate(input.To, from.AddDays(6))
	if err != nil {
		return nil, err
	}
	days, err := t.app.AvailabilityRangeHandler.Handle(ctx, queries.AvailabilityRangeQuery{
		ProfessionalID: professionalID,
		From:           from,
		To:             to,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return &availabilityListOutput{Days: days}, nil
}

func (t *toolset) availabilityNext(ctx context.Context, input nextAvailableInput) (*nextAvailableOutput, error) {
	professionalID, err := parseUUID(input.ProfessionalID)
	if err != nil {
		return nil, err
	}
	from, err := parseDate(input.From, t.app.Today())
	if err != nil {
		return nil, err
	}
	count := input.Count
	if count == 0 {
		count = 1
	}
	days, err := t.app.NextAvailableHandler.Handle(ctx, queries.NextAvailableQuery{
		ProfessionalID: professionalID,
		From:           from,
		Count:          count,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return &nextAvailableOutput{Days: days}, nil
}

func (t *toolset) availabilitySpecialty(ctx context.Context, input specialtyInput) (*specialtyOutput, error) {
	date, err := parseDate(input.Date, t.app.Today())
	if err != nil {
		return nil, err
	}
	list, err := t.app.AvailabilityBySpecialtyHandler.Handle(ctx, queries.AvailabilityBySpecialtyQuery{
		Specialty:     input.Specialty,
		Date:          date,
		OnlyAvailable: input.OnlyAvailable,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return &specialtyOutput{Date: date, Professionals: list, Total: len(list)}, nil
}

func (t *toolset) availabilityStarts(ctx context.Context, input startsInput) (*queries.AvailableStartsResult, error) {
	professionalID, err := parseUUID(input.ProfessionalID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.app.Today())
	if err != nil {
		return nil, err
	}
	items, err := serviceQuantities(input.Services)
	if err != nil {
		return nil, err
	}
	exclude, err := parseOptionalUUID(input.ExcludeBookingID)
	if err != nil {
		return nil, err
	}
	result, err := t.app.AvailableStartsHandler.Handle(ctx, queries.AvailableStartsQuery{
		ProfessionalID:   professionalID,
		Date:             date,
		Duration:         input.DurationMinutes,
		Services:         items,
		ExcludeBookingID: exclude,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return result, nil
}

func (t *toolset) availabilityCheck(ctx context.Context, input checkInput) (*domain.AdmissionDecision, error) {
	professionalID, err := parseUUID(input.ProfessionalID)
	if err != nil {
		return nil, err
	}
	additional, err := parseUUIDs(input.AdditionalProfessionalIDs)
	if err != nil {
		return nil, err
	}
	clientID, err := parseOptionalUUID(input.ClientID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.app.Today())
	if err != nil {
		return nil, err
	}
	start, err := parseTime(input.Start)
	if err != nil {
		return nil, err
	}
	items, err := serviceQuantities(input.Services)
	if err != nil {
		return nil, err
	}
	exclude, err := parseOptionalUUID(input.ExcludeBookingID)
	if err != nil {
		return nil, err
	}

	decision, err := t.app.CanBookHandler.Handle(ctx, queries.CanBookQuery{
		ProfessionalID:            professionalID,
		AdditionalProfessionalIDs: additional,
		ClientID:                  clientID,
		Date:                      date,
		Start:                     start,
		Duration:                  input.DurationMinutes,
		Services:                  items,
		ExcludeBookingID:          exclude,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return &decision, nil
}

func (t *toolset) availabilityRefresh(ctx context.Context, input refreshInput) (*services.RefreshResult, error) {
	date, err := parseDate(input.Date, t.app.Today())
	if err != nil {
		return nil, err
	}
	result, err := t.app.RefreshAvailabilityHandler.Handle(ctx, commands.RefreshAvailabilityCommand{
		Date:      date,
		Specialty: input.Specialty,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return result, nil
}
