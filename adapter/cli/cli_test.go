package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/adapter/cli/clitest"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire(t *testing.T) {
	cli.SetApp(nil)
	_, err := cli.Require()
	assert.ErrorIs(t, err, cli.ErrNotInitialized)

	app := clitest.Setup(t)
	got, err := cli.Require()
	require.NoError(t, err)
	assert.Same(t, app, got)
	assert.Equal(t, domain.Date{Year: 2024, Month: 1, Day: 10}, app.Today())
}

func TestParseServices(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		raw     []string
		want    []cli.ServiceArg
		wantErr bool
	}{
		{"plain id", []string{id.String()}, []cli.ServiceArg{{ServiceID: id, Quantity: 1}}, false},
		{"with quantity", []string{id.String() + ":3"}, []cli.ServiceArg{{ServiceID: id, Quantity: 3}}, false},
		{"zero quantity", []string{id.String() + ":0"}, nil, true},
		{"bad id", []string{"cut"}, nil, true},
		{"empty", nil, []cli.ServiceArg{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cli.ParseServices(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Run("admission reason is shown", func(t *testing.T) {
		err := domain.Deny(domain.ReasonClientDailyLimit, uuid.Nil, "client reached %d bookings", 3).Err()
		assert.Equal(t, "client reached 3 bookings (client_daily_limit)", cli.Describe(err).Error())
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		err := fmt.Errorf("%w: connection refused", sharedDomain.ErrInternal)
		assert.Equal(t, "internal error", cli.Describe(err).Error())
	})

	t.Run("validation passes through", func(t *testing.T) {
		err := sharedDomain.NewFieldError("date", "is required")
		assert.True(t, errors.Is(err, sharedDomain.ErrValidation))
		assert.Contains(t, cli.Describe(err).Error(), "date")
	})
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "25.00", cli.FormatPrice(2500))
	assert.Equal(t, "0.05", cli.FormatPrice(5))
	assert.Equal(t, "123.45", cli.FormatPrice(12345))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cli.VersionCmd.SetOut(&out)
	defer cli.VersionCmd.SetOut(nil)

	cli.VersionCmd.Run(cli.VersionCmd, nil)
	assert.Contains(t, out.String(), "slotwise dev")
	assert.Contains(t, out.String(), "commit: none")
}

func TestMigrateCommand(t *testing.T) {
	clitest.Setup(t)

	out, err := clitest.Run(t, cli.MigrateCmd)
	require.NoError(t, err)
	assert.Equal(t, "Schema is up to date.\n", out)
}

func TestHealthCommand(t *testing.T) {
	clitest.Setup(t)

	t.Run("text", func(t *testing.T) {
		out, err := clitest.Run(t, cli.HealthCmd)
		require.NoError(t, err)
		assert.Contains(t, out, "status: healthy")
		assert.Contains(t, out, "database")
	})

	t.Run("json", func(t *testing.T) {
		cli.SetJSONOutput(true)
		defer cli.SetJSONOutput(false)

		out, err := clitest.Run(t, cli.HealthCmd)
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &body))
		assert.Equal(t, "healthy", body["status"])
	})
}

func TestCommandsRequireApp(t *testing.T) {
	cli.SetApp(nil)
	_, err := clitest.Run(t, cli.MigrateCmd)
	assert.ErrorIs(t, err, cli.ErrNotInitialized)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, cli.ExitOK},
		{"validation", sharedDomain.NewFieldError("date", "required"), cli.ExitValidation},
		{"not found", fmt.Errorf("booking: %w", sharedDomain.ErrNotFound), cli.ExitNotFound},
		{"conflict", fmt.Errorf("slot taken: %w", sharedDomain.ErrConflict), cli.ExitConflict},
		{"unclassified", errors.New("disk full"), cli.ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cli.ExitCode(tt.err))
		})
	}
}
