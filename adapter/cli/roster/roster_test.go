package roster

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/slotwise/adapter/cli/clitest"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	proSpecialty, proSchedule, proFrom, proTo, proWorkDays, proHired = "", "standard", "", "", "", ""
	listSpecialty, listAll = "", false
	serviceDuration, servicePrice = 0, 0
}

func TestProfessionalAddCmd(t *testing.T) {
	app := clitest.Setup(t)

	t.Run("custom schedule", func(t *testing.T) {
		resetFlags()
		proSpecialty = "nails"
		proSchedule = "custom"
		proFrom = "09:00"
		proTo = "13:00"
		proWorkDays = "mon,wed"

		out, err := clitest.Run(t, professionalAddCmd, "Bruno")
		require.NoError(t, err)
		assert.Contains(t, out, "Professional registered:")

		list, err := app.ListProfessionalsHandler.Handle(context.Background(), "nails", true)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.ScheduleCustom, list[0].ScheduleType)
		assert.Equal(t, &domain.Interval{Start: domain.At(9, 0), End: domain.At(13, 0)}, list[0].CustomWindow)
	})

	t.Run("custom window requires custom schedule", func(t *testing.T) {
		resetFlags()
		proFrom = "09:00"
		proTo = "13:00"

		_, err := clitest.Run(t, professionalAddCmd, "Carla")
		assert.Error(t, err)
	})

	t.Run("unknown schedule type", func(t *testing.T) {
		resetFlags()
		proSchedule = "night"

		_, err := clitest.Run(t, professionalAddCmd, "Dora")
		assert.Error(t, err)
	})

	t.Run("unknown weekday", func(t *testing.T) {
		resetFlags()
		proWorkDays = "mon,funday"

		_, err := clitest.Run(t, professionalAddCmd, "Eva")
		assert.Error(t, err)
	})
}

func TestProfessionalListCmd(t *testing.T) {
	app := clitest.Setup(t)
	clitest.Seed(t, app)

	resetFlags()
	out, err := clitest.Run(t, professionalListCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "hair")

	resetFlags()
	listSpecialty = "nails"
	out, err = clitest.Run(t, professionalListCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No professionals found.")
}

func TestClientAndServiceAddCmd(t *testing.T) {
	clitest.Setup(t)

	resetFlags()
	out, err := clitest.Run(t, clientAddCmd, "Maria", "Silva")
	require.NoError(t, err)
	assert.Contains(t, out, "Client registered:")

	resetFlags()
	serviceDuration = 45
	servicePrice = 4000
	out, err = clitest.Run(t, serviceAddCmd, "Colour")
	require.NoError(t, err)
	assert.Contains(t, out, "Service added:")

	resetFlags()
	_, err = clitest.Run(t, serviceAddCmd, "Free")
	assert.Error(t, err)
}
