package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

// RegisterResources registers MCP resources that expose roster and
// availability data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.App == nil {
		return fmt.Errorf("app is required")
	}
	t := &toolset{app: deps.App}

	srv.Resource("slotwise://professionals").
		Name("Professionals").
		Description("Active professionals with their schedule types and work days").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			list, err := t.app.ListProfessionalsHandler.Handle(ctx, "", true)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, list)
		})

	srv.Resource("slotwise://availability/today").
		Name("Today's availability").
		Description("Free slot counts of every active professional today").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			summary, err := t.todaySummary(ctx)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, summary)
		})

	srv.Resource("slotwise://system/health").
		Name("System health").
		Description("Database, cache and broker health checks").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, t.app.Health.GetOverallHealth(ctx))
		})

	return nil
}

// professionalDay is one row of the today resource.
type professionalDay struct {
	ProfessionalID string            `json:"professional_id"`
	Name           string            `json:"name"`
	Specialty      string            `json:"specialty"`
	WorkWindow     domain.WorkWindow `json:"work_window"`
	Summary        domain.Summary    `json:"summary"`
}

func (t *toolset) todaySummary(ctx context.Context) ([]professionalDay, error) {
	professionals, err := t.app.ListProfessionalsHandler.Handle(ctx, "", true)
	if err != nil {
		return nil, err
	}
	today := t.app.Today()
	out := make([]professionalDay, 0, len(professionals))
	for _, p := range professionals {
		availability, err := t.app.GetAvailabilityHandler.Handle(ctx, queries.GetAvailabilityQuery{
			ProfessionalID: p.ID,
			Date:           today,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, professionalDay{
			ProfessionalID: p.ID.String(),
			Name:           p.Name,
			Specialty:      p.Specialty,
			WorkWindow:     availability.WorkWindow,
			Summary:        availability.Summary,
		})
	}
	return out, nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
