package mcp

import (
	"log/slog"
	"os"
	"testing"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/slotwise/adapter/cli/clitest"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewServer(t *testing.T) {
	app := clitest.Setup(t)

	srv, err := NewServer(&config.Config{Version: "1.2.3"}, app, testLogger())
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.NotEmpty(t, tools)
}

func TestNewServer_RequiresApp(t *testing.T) {
	_, err := NewServer(&config.Config{}, nil, testLogger())
	assert.Error(t, err)
}

func TestMiddleware_AuthPrepended(t *testing.T) {
	open := Middleware(&config.Config{}, testLogger())
	secured := Middleware(&config.Config{MCPAuthToken: "secret"}, testLogger())
	assert.Len(t, secured, len(open)+1)
}

func TestNewCLIApp(t *testing.T) {
	_, err := NewCLIApp(nil, "")
	assert.Error(t, err)
}

func TestFieldsToArgs(t *testing.T) {
	assert.Empty(t, fieldsToArgs(nil))

	args := fieldsToArgs([]middleware.Field{{Key: "tool", Value: "availability"}})
	require.Len(t, args, 1)
	attr, ok := args[0].(slog.Attr)
	require.True(t, ok)
	assert.True(t, slog.String("tool", "availability").Equal(attr))
}
