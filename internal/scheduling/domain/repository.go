package domain

import (
	"context"

	"github.com/google/uuid"
)

// ActiveBooking is the read model of a pending or in-progress booking used
// when resolving occupied time.
type ActiveBooking struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	ClientName     string
	ProfessionalID uuid.UUID
	Interval       Interval
}

// BookingFilter narrows ListBookings. Zero fields are ignored.
type BookingFilter struct {
	ProfessionalID *uuid.UUID
	ClientID       *uuid.UUID
	Date           *Date
	Status         BookingStatus
}

// ProfessionalRepository defines persistence operations for professionals.
type ProfessionalRepository interface {
	Save(ctx context.Context, p *Professional) error
	FindByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	// ListActive returns active professionals; an empty specialty lists all.
	ListActive(ctx context.Context, specialty string) ([]*Professional, error)
	List(ctx context.Context) ([]*Professional, error)
	// LockForBooking locks the rows for the rest of the transaction.
	LockForBooking(ctx context.Context, ids []uuid.UUID) error
}

// ClientRepository defines persistence operations for clients.
type ClientRepository interface {
	Save(ctx context.Context, c *Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)
	LockForBooking(ctx context.Context, id uuid.UUID) error
}

// ServiceRepository defines persistence operations for services.
type ServiceRepository interface {
	Save(ctx context.Context, s *Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	List(ctx context.Context) ([]*Service, error)
}

// AbsenceRepository defines persistence operations for absence records.
type AbsenceRepository interface {
	Save(ctx context.Context, a *AbsenceRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*AbsenceRecord, error)
	// FindActive returns the non-voided record, or nil when there is none.
	FindActive(ctx context.Context, professionalID uuid.UUID, date Date) (*AbsenceRecord, error)
}

// BookingRepository defines persistence operations for bookings.
type BookingRepository interface {
	Save(ctx context.Context, b *Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// FindActiveForProfessional returns active bookings on date where the
	// professional is principal or additional.
	FindActiveForProfessional(ctx context.Context, professionalID uuid.UUID, date Date, exclude *uuid.UUID) ([]ActiveBooking, error)
	FindActiveForClient(ctx context.Context, clientID uuid.UUID, date Date, exclude *uuid.UUID) ([]ActiveBooking, error)
	List(ctx context.Context, filter BookingFilter) ([]*Booking, error)
}

// SnapshotRepository stores computed availability.
type SnapshotRepository interface {
	Upsert(ctx context.Context, s *Snapshot) error
	// Find returns nil when no snapshot exists.
	Find(ctx context.Context, key SnapshotKey) (*Snapshot, error)
	Delete(ctx context.Context, keys ...SnapshotKey) error
}

// SnapshotCache is a hot cache in front of the availability calculator.
type SnapshotCache interface {
	// Get returns nil without error on a miss.
	Get(ctx context.Context, key SnapshotKey) (*Snapshot, error)
	Set(ctx context.Context, s *Snapshot) error
	Invalidate(ctx context.Context, keys ...SnapshotKey) error
}
