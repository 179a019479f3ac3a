package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	entity := domain.NewBaseEntity(now)

	assert.NotEqual(t, uuid.Nil, entity.ID())
	assert.Equal(t, now, entity.CreatedAt())
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestBaseEntity_Touch(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	entity := domain.NewBaseEntity(now)

	entity.Touch(now.Add(time.Minute))

	assert.Equal(t, now.Add(time.Minute), entity.UpdatedAt())
	assert.Equal(t, now, entity.CreatedAt())
}

func TestSameIdentity(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	a := domain.RehydrateBaseEntity(id, now, now)
	b := domain.RehydrateBaseEntity(id, now, now.Add(time.Hour))
	c := domain.NewBaseEntity(now)

	assert.True(t, domain.SameIdentity(a, b))
	assert.False(t, domain.SameIdentity(a, c))
	assert.False(t, domain.SameIdentity(a, nil))
}

func TestBaseEntity_TouchNeverRewinds(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	entity := domain.NewBaseEntity(now)

	entity.Touch(now.Add(-time.Hour))

	assert.Equal(t, now, entity.UpdatedAt())
}
