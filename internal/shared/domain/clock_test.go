package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	clock := domain.NewFixedClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), clock.Now())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}

func TestSystemClock_UsesLocation(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	now := domain.SystemClock{Location: loc}.Now()
	assert.Equal(t, loc, now.Location())
}
