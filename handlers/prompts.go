// ABOUTME: MCP prompt handlers for reusable visit workflow templates
// ABOUTME: Provides the recap generation prompt and a customer follow-up email prompt
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/summary"
	"github.com/harperreed/onsite/visit"
)

type PromptHandlers struct {
	store visit.Store
}

func NewPromptHandlers(store visit.Store) *PromptHandlers {
	return &PromptHandlers{store: store}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "visit-recap":
		return h.getVisitRecapPrompt(request.Params.Arguments)
	case "follow-up-email":
		return h.getFollowUpEmailPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) visitArg(args map[string]string) (*models.Visit, error) {
	raw, ok := args["visit_id"]
	if !ok || raw == "" {
		return nil, fmt.Errorf("visit_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid visit_id: %w", err)
	}
	v, err := h.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visit: %w", err)
	}
	return v, nil
}

// getVisitRecapPrompt hands the client the same request the built-in providers receive.
func (h *PromptHandlers) getVisitRecapPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	v, err := h.visitArg(args)
	if err != nil {
		return nil, err
	}

	req := summary.Build(v)
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Onsite visit recap for %s", displayName(v)),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: req.System + "\n\n" + req.Prompt,
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getFollowUpEmailPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	v, err := h.visitArg(args)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Draft a short thank-you and follow-up email to %s after our onsite visit.\n", displayName(v)))

	var champions []string
	for _, c := range v.Contacts {
		if c.IsChampion {
			champions = append(champions, c.Name)
		}
	}
	if len(champions) > 0 {
		promptText.WriteString(fmt.Sprintf("\nAddress it to: %s\n", strings.Join(champions, ", ")))
	}

	if v.GeneratedSummary != "" {
		promptText.WriteString("\nVisit recap:\n")
		promptText.WriteString(v.GeneratedSummary)
		promptText.WriteString("\n")
	} else if v.CustomerSummary != "" {
		promptText.WriteString(fmt.Sprintf("\nCustomer overview: %s\n", v.CustomerSummary))
	}

	open := 0
	for _, a := range v.ActionItems {
		if a.Completed {
			continue
		}
		if open == 0 {
			promptText.WriteString("\nOpen action items:\n")
		}
		open++
		promptText.WriteString(fmt.Sprintf("- %s (Owner: %s, Due: %s)\n", a.Description, orDash(a.Owner), orDash(a.DueDate)))
	}

	if v.FollowUpDate != "" {
		promptText.WriteString(fmt.Sprintf("\nPropose the next check-in on %s.\n", v.FollowUpDate))
	}

	promptText.WriteString("\nKeep it under 200 words, friendly and specific to what we discussed.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Follow-up email for %s", displayName(v)),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func displayName(v *models.Visit) string {
	if v.CustomerName == "" {
		return "the customer"
	}
	return v.CustomerName
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
