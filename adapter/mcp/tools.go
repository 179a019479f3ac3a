// Package mcp exposes availability, booking and absence operations as MCP
// tools, resources and prompts.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// toolset binds every tool handler to the application.
type toolset struct {
	app *cli.App
}

// RegisterCLITools registers MCP tools that mirror CLI functionality.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	t := &toolset{app: deps.App}
	t.registerCoreTools(srv)
	t.registerAvailabilityTools(srv)
	t.registerBookingTools(srv)
	t.registerAbsenceTools(srv)
	return nil
}
