package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// Service is a bookable treatment with a fixed duration and price.
// Prices are in minor currency units.
type Service struct {
	sharedDomain.BaseEntity
	name            string
	durationMinutes int
	unitPrice       int64
	active          bool
}

// NewService registers an active service.
func NewService(name string, durationMinutes int, unitPrice int64, now time.Time) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, sharedDomain.NewFieldError("name", "is required")
	}
	if durationMinutes <= 0 || durationMinutes > MinutesPerDay {
		return nil, sharedDomain.NewFieldError("duration_minutes", "must be between 1 and 1440")
	}
	if unitPrice < 0 {
		return nil, sharedDomain.NewFieldError("unit_price", "must not be negative")
	}
	return &Service{
		BaseEntity:      sharedDomain.NewBaseEntity(now),
		name:            name,
		durationMinutes: durationMinutes,
		unitPrice:       unitPrice,
		active:          true,
	}, nil
}

// RehydrateService recreates a service from persisted state.
func RehydrateService(id uuid.UUID, name string, durationMinutes int, unitPrice int64, active bool, createdAt, updatedAt time.Time) *Service {
	return &Service{
		BaseEntity:      sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:            name,
		durationMinutes: durationMinutes,
		unitPrice:       unitPrice,
		active:          active,
	}
}

func (s *Service) Name() string         { return s.name }
func (s *Service) DurationMinutes() int { return s.durationMinutes }
func (s *Service) UnitPrice() int64     { return s.unitPrice }
func (s *Service) IsActive() bool       { return s.active }
