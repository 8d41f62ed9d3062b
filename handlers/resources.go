// ABOUTME: MCP resource handlers for exposing saved visits
// ABOUTME: Provides read-only access to visits and their recap text via onsite:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/onsite/export"
	"github.com/harperreed/onsite/visit"
)

const resourceScheme = "onsite://"

type ResourceHandlers struct {
	store visit.Store
}

func NewResourceHandlers(store visit.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles onsite://visits, onsite://visits/{id} and onsite://visits/{id}/summary.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if parts[0] != "visits" {
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}

	switch len(parts) {
	case 1:
		return h.readAllVisits(uri)
	case 2:
		return h.readVisit(uri, parts[1])
	case 3:
		if parts[2] == "summary" {
			return h.readSummary(uri, parts[1])
		}
	}
	return nil, fmt.Errorf("unknown resource: %s", uri)
}

func (h *ResourceHandlers) readAllVisits(uri string) (*mcp.ReadResourceResult, error) {
	visits, err := h.store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visits: %w", err)
	}

	listing := make([]VisitListing, 0, len(visits))
	for i := range visits {
		listing = append(listing, visitToListing(&visits[i]))
	}

	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal visits: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readVisit(uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid visit ID: %w", err)
	}

	v, err := h.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visit: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal visit: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readSummary(uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid visit ID: %w", err)
	}

	v, err := h.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visit: %w", err)
	}
	if v.GeneratedSummary == "" {
		return nil, fmt.Errorf("visit %s: %w", idStr, export.ErrNoSummary)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     v.GeneratedSummary,
		},
	}}, nil
}
