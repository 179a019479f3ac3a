package mcp

import (
	"fmt"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/app"
	"github.com/google/uuid"
)

// NewCLIApp creates a CLI application backed by container. actorID is
// recorded on events raised through MCP tools; an empty value leaves it unset.
func NewCLIApp(container *app.Container, actorID string) (*cli.App, error) {
	if container == nil {
		return nil, fmt.Errorf("container is required")
	}
	cliApp := cli.NewApp(container)
	if actorID == "" {
		return cliApp, nil
	}
	id, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("MCP_ACTOR_ID: %w", err)
	}
	cliApp.SetActorID(id)
	return cliApp, nil
}
