package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything in the scheduling model with a stable identity:
// professionals, clients, services, bookings and absence records.
type Entity interface {
	ID() uuid.UUID
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

// BaseEntity carries the identity and the audit stamps. Stamps are kept in UTC.
type BaseEntity struct {
	id      uuid.UUID
	created time.Time
	updated time.Time
}

// NewBaseEntity assigns a fresh identity created at now.
func NewBaseEntity(now time.Time) BaseEntity {
	return RehydrateBaseEntity(uuid.New(), now, now)
}

// RehydrateBaseEntity rebuilds an entity read back from storage.
func RehydrateBaseEntity(id uuid.UUID, createdAt, updatedAt time.Time) BaseEntity {
	return BaseEntity{id: id, created: createdAt.UTC(), updated: updatedAt.UTC()}
}

func (e BaseEntity) ID() uuid.UUID        { return e.id }
func (e BaseEntity) CreatedAt() time.Time { return e.created }
func (e BaseEntity) UpdatedAt() time.Time { return e.updated }

// Touch records a modification at now. The stamp never moves backwards.
func (e *BaseEntity) Touch(now time.Time) {
	if now = now.UTC(); now.After(e.updated) {
		e.updated = now
	}
}

// SameIdentity reports whether a and b are the same entity.
func SameIdentity(a, b Entity) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}
