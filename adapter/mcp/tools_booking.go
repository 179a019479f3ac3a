package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
)

type bookingCreateInput struct {
	ClientID                  string         `json:"client_id" jsonschema:"required"`
	ProfessionalID            string         `json:"professional_id" jsonschema:"required"`
	AdditionalProfessionalIDs []string       `json:"additional_professional_ids,omitempty"`
	Services                  []serviceInput `json:"services" jsonschema:"required"`
	Date                      string         `json:"date,omitempty"`
	Start                     string         `json:"start" jsonschema:"required"`
	Notes                     string         `json:"notes,omitempty"`
}

type bookingRescheduleInput struct {
	BookingID string         `json:"booking_id" jsonschema:"required"`
	Date      string         `json:"date,omitempty"`
	Start     string         `json:"start,omitempty"`
	Services  []serviceInput `json:"services,omitempty"`
}

type bookingStatusInput struct {
	BookingID string `json:"booking_id" jsonschema:"required"`
	Status    string `json:"status" jsonschema:"required"`
	Reason    string `json:"reason,omitempty"`
}

type bookingShowInput struct {
	BookingID string `json:"booking_id" jsonschema:"required"`
}

type bookingListInput struct {
	ProfessionalID string `json:"professional_id,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	Date           string `json:"date,omitempty"`
	Status         string `json:"status,omitempty"`
}

type bookingListOutput struct {
	Bookings []queries.BookingDTO `json:"bookings"`
	Total    int                  `json:"total"`
}

func (t *toolset) registerBookingTools(srv *mcp.Server) {
	srv.Tool("booking.create").
		Description("Create a pending booking after admission checks").
		Handler(t.bookingCreate)

	srv.Tool("booking.reschedule").
		Description("Move a booking to a new date, start or service set").
		Handler(t.bookingReschedule)

	srv.Tool("booking.status").
		Description("Transition a booking to a new status").
		Handler(t.bookingStatus)

	srv.Tool("booking.show").
		Description("Get a booking by ID").
		Handler(t.bookingShow)

	srv.Tool("booking.list").
		Description("List bookings by professional, client, date or status").
		Handler(t.bookingList)
}

func (t *toolset) bookingCreate(ctx context.Context, input bookingCreateInput) (*queries.BookingDTO, error) {
	clientID, err := parseUUID(input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	professionalID, err := parseUUID(input.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("professional: %w", err)
	}
	additional, err := parseUUIDs(input.AdditionalProfessionalIDs)
	if err != nil {
		return nil, err
	}
	services, err := serviceRequests(input.Services)
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

	result, err := t.app.CreateBookingHandler.Handle(ctx, commands.CreateBookingCommand{
		ActorID:                   t.app.ActorID,
		ClientID:                  clientID,
		ProfessionalID:            professionalID,
		AdditionalProfessionalIDs: additional,
		Services:                  services,
		Date:                      date,
		Start:                     start,
		Notes:                     input.Notes,
	})
	if err != nil {
		return nil, cli.Describe(err)
	}
	return t.booking(ctx, result.BookingID)
}

func (t *toolset) bookingReschedule(ctx context.Context, input bookingRescheduleInput) (*queries.BookingDTO, error) {
	id, err := parseUUID(input.BookingID)
	if err != nil {
		return nil, err
	}
	current, err := t.booking(ctx, id)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(input.Date, current.Date)
	if err != nil {
		return nil, err
	}
	start := current.Start
	if input.Start != "" {
		if start, err = parseTime(input.Start); err != nil {
			return nil, err
		}
	}
	var services []commands.ServiceRequest
	if len(input.Services) > 0 {
		if services, err = serviceRequests(input.Services); err != nil {
			return nil, err
		}
	}

	if _, err := t.app.RescheduleBookingHandler.Handle(ctx, commands.RescheduleBookingCommand{
		ActorID:   t.app.ActorID,
		BookingID: id,
		Date:      date,
		Start:     start,
		Services:  services,
	}); err != nil {
		return nil, cli.Describe(err)
	}
	return t.booking(ctx, id)
}

func (t *toolset) bookingStatus(ctx context.Context, input bookingStatusInput) (*queries.BookingDTO, error) {
	id, err := parseUUID(input.BookingID)
	if err != nil {
		return nil, err
	}
	status := domain.BookingStatus(input.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("unknown booking status %q", input.Status)
	}
	if _, err := t.app.TransitionBookingHandler.Handle(ctx, commands.TransitionBookingCommand{
		ActorID:   t.app.ActorID,
		BookingID: id,
		Status:    status,
		Reason:    input.Reason,
	}); err != nil {
		return nil, cli.Describe(err)
	}
	return t.booking(ctx, id)
}

func (t *toolset) bookingShow(ctx context.Context, input bookingShowInput) (*queries.BookingDTO, error) {
	id, err := parseUUID(input.BookingID)
	if err != nil {
		return nil, err
	}
	return t.booking(ctx, id)
}

func (t *toolset) bookingList(ctx context.Context, input bookingListInput) (*bookingListOutput, error) {
	var filter domain.BookingFilter
	var err error
	if filter.ProfessionalID, err = parseOptionalUUID(input.ProfessionalID); err != nil {
		return nil, fmt.Errorf("professional: %w", err)
	}
	if filter.ClientID, err = parseOptionalUUID(input.ClientID); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	if input.Date != "" {
		date, err := parseDate(input.Date, domain.Date{})
		if err != nil {
			return nil, err
		}
		filter.Date = &date
	}
	filter.Status = domain.BookingStatus(input.Status)

	list, err := t.app.ListBookingsHandler.Handle(ctx, filter)
	if err != nil {
		return nil, cli.Describe(err)
	}
	if list == nil {
		list = []queries.BookingDTO{}
	}
	return &bookingListOutput{Bookings: list, Total: len(list)}, nil
}

func (t *toolset) booking(ctx context.Context, id uuid.UUID) (*queries.BookingDTO, error) {
	booking, err := t.app.GetBookingHandler.Handle(ctx, id)
	if err != nil {
		return nil, cli.Describe(err)
	}
	return booking, nil
}
