package domain_test

import (
	"slices"
	"testing"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGranularity(t *testing.T) {
	for _, m := range []int{15, 30, 45, 60} {
		assert.NoError(t, domain.ValidateGranularity(m))
	}
	for _, m := range []int{0, 10, 20, 90, -30} {
		assert.ErrorIs(t, domain.ValidateGranularity(m), domain.ErrInvalidGranularity)
	}
}

func TestSlotGenerator_Grid(t *testing.T) {
	t.Run("standard window at 30 minutes yields 20 slots", func(t *testing.T) {
		gen, err := domain.NewSlotGenerator(iv("10:00", "20:00"), 30)
		require.NoError(t, err)

		slots := slices.Collect(gen.Grid())
		require.Len(t, slots, 20)
		assert.Equal(t, iv("10:00", "10:30"), slots[0])
		assert.Equal(t, iv("19:30", "20:00"), slots[19])
	})

	t.Run("last slot may run past an unaligned window", func(t *testing.T) {
		gen, err := domain.NewSlotGenerator(iv("10:00", "11:00"), 45)
		require.NoError(t, err)

		slots := slices.Collect(gen.Grid())
		assert.Equal(t, []domain.Interval{iv("10:00", "10:45"), iv("10:45", "11:30")}, slots)
	})

	t.Run("restartable", func(t *testing.T) {
		gen, err := domain.NewSlotGenerator(iv("08:00", "09:00"), 15)
		require.NoError(t, err)

		assert.Equal(t, slices.Collect(gen.Grid()), slices.Collect(gen.Grid()))
	})

	t.Run("stops early", func(t *testing.T) {
		gen, err := domain.NewSlotGenerator(iv("08:00", "16:00"), 60)
		require.NoError(t, err)

		count := 0
		for range gen.Grid() {
			count++
			if count == 3 {
				break
			}
		}
		assert.Equal(t, 3, count)
	})

	t.Run("invalid granularity", func(t *testing.T) {
		_, err := domain.NewSlotGenerator(iv("08:00", "16:00"), 20)
		assert.ErrorIs(t, err, domain.ErrInvalidGranularity)
	})
}

func TestSlotGenerator_Fits(t *testing.T) {
	gen, err := domain.NewSlotGenerator(iv("10:00", "12:00"), 30)
	require.NoError(t, err)

	fits := slices.Collect(gen.Fits(60))
	assert.Equal(t, []domain.Interval{
		iv("10:00", "11:00"),
		iv("10:30", "11:30"),
		iv("11:00", "12:00"),
	}, fits)

	assert.Empty(t, slices.Collect(gen.Fits(150)))
}
