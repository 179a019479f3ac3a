package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

type professionalsInput struct {
	Specialty string `json:"specialty,omitempty"`
	All       bool   `json:"all,omitempty"`
}

type professionalsOutput struct {
	Professionals []queries.ProfessionalDTO `json:"professionals"`
	Total         int                       `json:"total"`
}

func (t *toolset) registerCoreTools(srv *mcp.Server) {
	srv.Tool("cli.health").
		Description("Check database, cache and broker connectivity").
		Handler(t.health)

	srv.Tool("roster.professionals").
		Description("List professionals, optionally filtered by specialty").
		Handler(t.professionals)
}

func (t *toolset) health(ctx context.Context, _ struct{}) (observability.OverallHealth, error) {
	return t.app.Health.GetOverallHealth(ctx), nil
}

func (t *toolset) professionals(ctx context.Context, input professionalsInput) (*professionalsOutput, error) {
	list, err := t.app.ListProfessionalsHandler.Handle(ctx, input.Specialty, !input.All)
	if err != nil {
		return nil, cli.Describe(err)
	}
	if list == nil {
		list = []queries.ProfessionalDTO{}
	}
	return &professionalsOutput{Professionals: list, Total: len(list)}, nil
}
