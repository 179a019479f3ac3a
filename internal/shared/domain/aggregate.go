package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is the consistency boundary a repository loads and saves.
type AggregateRoot interface {
	Entity
	DomainEvents() []DomainEvent
	ClearDomainEvents()
	Version() int
}

// BaseAggregateRoot buffers raised events until the command handler moves
// them into the outbox, and carries the optimistic-lock version.
type BaseAggregateRoot struct {
	BaseEntity
	pending []DomainEvent
	version int
}

// NewBaseAggregateRoot starts a new aggregate at version 0.
func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(now)}
}

// RehydrateBaseAggregateRoot rebuilds an aggregate read back at version.
func RehydrateBaseAggregateRoot(id uuid.UUID, createdAt, updatedAt time.Time, version int) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: RehydrateBaseEntity(id, createdAt, updatedAt),
		version:    version,
	}
}

// AddDomainEvent appends event to the pending list.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// DomainEvents returns a copy of the pending events in the order raised.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return slices.Clone(a.pending)
}

func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }

// Version is the stored version the aggregate was read at.
func (a *BaseAggregateRoot) Version() int { return a.version }

// SetVersion records the version written by a successful update.
func (a *BaseAggregateRoot) SetVersion(version int) { a.version = version }
