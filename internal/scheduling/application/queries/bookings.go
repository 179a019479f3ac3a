package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// BookingDTO is a data transfer object for bookings.
type BookingDTO struct {
	ID                        uuid.UUID            `json:"id"`
	ClientID                  uuid.UUID            `json:"client_id"`
	ProfessionalID            uuid.UUID            `json:"professional_id"`
	AdditionalProfessionalIDs []uuid.UUID          `json:"additional_professional_ids,omitempty"`
	Date                      domain.Date          `json:"date"`
	Start                     domain.TimeOfDay     `json:"start"`
	End                       domain.TimeOfDay     `json:"end"`
	DurationMinutes           int                  `json:"duration_minutes"`
	Lines                     []domain.ServiceLine `json:"lines"`
	TotalPrice                int64                `json:"total_price"`
	Status                    domain.BookingStatus `json:"status"`
	Notes                     string               `json:"notes,omitempty"`
	CancellationReason        string               `json:"cancellation_reason,omitempty"`
	CompletedAt               *time.Time           `json:"completed_at,omitempty"`
	CreatedAt                 time.Time            `json:"created_at"`
	UpdatedAt                 time.Time            `json:"updated_at"`
}

// ToBookingDTO converts a booking into its transfer form.
func ToBookingDTO(b *domain.Booking) BookingDTO {
	iv := b.Interval()
	return BookingDTO{
		ID:                        b.ID(),
		ClientID:                  b.ClientID(),
		ProfessionalID:            b.ProfessionalID(),
		AdditionalProfessionalIDs: b.AdditionalProfessionalIDs(),
		Date:                      b.Date(),
		Start:                     iv.Start,
		End:                       iv.End,
		DurationMinutes:           b.Duration(),
		Lines:                     b.Lines(),
		TotalPrice:                b.TotalPrice(),
		Status:                    b.Status(),
		Notes:                     b.Notes(),
		CancellationReason:        b.CancellationReason(),
		CompletedAt:               b.CompletedAt(),
		CreatedAt:                 b.CreatedAt(),
		UpdatedAt:                 b.UpdatedAt(),
	}
}

// GetBookingHandler loads one booking.
type GetBookingHandler struct {
	bookings domain.BookingRepository
}

// NewGetBookingHandler creates a new GetBookingHandler.
func NewGetBookingHandler(bookings domain.BookingRepository) *GetBookingHandler {
	return &GetBookingHandler{bookings: bookings}
}

// Handle returns the booking or domain.ErrBookingNotFound.
func (h *GetBookingHandler) Handle(ctx context.Context, id uuid.UUID) (*BookingDTO, error) {
	b, err := h.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToBookingDTO(b)
	return &dto, nil
}

// ListBookingsHandler lists bookings by filter.
type ListBookingsHandler struct {
	bookings domain.BookingRepository
}

// NewListBookingsHandler creates a new ListBookingsHandler.
func NewListBookingsHandler(bookings domain.BookingRepository) *ListBookingsHandler {
	return &ListBookingsHandler{bookings: bookings}
}

// Handle executes the listing.
func (h *ListBookingsHandler) Handle(ctx context.Context, filter domain.BookingFilter) ([]BookingDTO, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, sharedDomain.NewFieldError("status", "unknown booking status")
	}
	bookings, err := h.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		out[i] = ToBookingDTO(b)
	}
	return out, nil
}
