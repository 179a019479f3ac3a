package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common booking workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("find_slot").
		Description("Find and book the earliest slot for a client with a professional or a specialty.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Find a slot", `Help me book an appointment. Please:

1. Look up the professionals with roster.professionals (filter by specialty if I named one)
2. Use availability.next to find the first days with free slots
3. Use availability.starts with the requested services to list start times that fit
4. Confirm the chosen time with availability.check, passing the client so their
   other bookings and the daily limit are checked
5. Only then create the booking with booking.create

If a check is denied, explain the reason (booking_conflict, absence_conflict, outside_window, day_off,
client_overlap, client_daily_limit) and offer the next alternative.`), nil
		})

	srv.Prompt("absence_impact").
		Description("Assess which bookings an absence would affect before recording it.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Absence impact", `A professional will be absent. Please:

1. List their bookings on the affected date with booking.list
2. Explain which bookings the absence would block: a full-day absence, vacation or
   medical leave blocks every slot, a partial absence only the given hours, a late
   arrival the hours before arrival
3. For a whole-day absence, ask whether to record it with cancel_bookings so the
   day's bookings move to cancelled_by_absence, or to reschedule them first with
   availability.next and booking.reschedule
4. Record the absence with absence.record`), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
