// ABOUTME: Visit MCP tool handlers
// ABOUTME: Implements list_visits, get_visit, add_action_item and set_follow_up tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/onsite/drive"
	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/visit"
)

type VisitHandlers struct {
	store visit.Store
	ws    *visit.Workspace
	now   func() time.Time
}

func NewVisitHandlers(store visit.Store) *VisitHandlers {
	return &VisitHandlers{
		store: store,
		ws:    visit.NewWorkspace(visit.Config{Store: store}),
		now:   time.Now,
	}
}

type ListVisitsInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Search customer name, account id and summary text"`
	Drafts bool   `json:"drafts,omitempty" jsonschema:"List visits that have no summary yet instead of finished recaps"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type VisitListing struct {
	ID           string `json:"id"`
	CustomerName string `json:"customer_name"`
	AccountID    string `json:"account_id,omitempty"`
	Health       string `json:"health"`
	Answered     int    `json:"answered"`
	Questions    int    `json:"questions"`
	HasSummary   bool   `json:"has_summary"`
	DriveFileID  string `json:"drive_file_id,omitempty"`
	UpdatedAt    string `json:"updated_at"`
}

type ListVisitsOutput struct {
	Visits []VisitListing `json:"visits"`
}

func (h *VisitHandlers) ListVisits(_ context.Context, request *mcp.CallToolRequest, input ListVisitsInput) (*mcp.CallToolResult, ListVisitsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		visits []models.Visit
		err    error
	)
	if input.Drafts {
		visits, err = h.ws.Drafts()
	} else {
		visits, err = h.ws.Repository(input.Query)
	}
	if err != nil {
		return nil, ListVisitsOutput{}, fmt.Errorf("failed to list visits: %w", err)
	}

	out := ListVisitsOutput{Visits: []VisitListing{}}
	for i := range visits {
		if len(out.Visits) >= limit {
			break
		}
		out.Visits = append(out.Visits, visitToListing(&visits[i]))
	}
	return nil, out, nil
}

type GetVisitInput struct {
	ID string `json:"id" jsonschema:"Visit ID (required)"`
}

type AnswerOutput struct {
	Title    string `json:"title"`
	Answer   string `json:"answer,omitempty"`
	HasAudio bool   `json:"has_audio"`
}

type ContactOutput struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Champion bool   `json:"champion"`
}

type ActionItemOutput struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Owner       string `json:"owner,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Completed   bool   `json:"completed"`
}

type VisitOutput struct {
	ID               string             `json:"id"`
	CustomerName     string             `json:"customer_name"`
	AccountID        string             `json:"account_id,omitempty"`
	ARR              string             `json:"arr,omitempty"`
	Health           string             `json:"health"`
	CustomerOverview string             `json:"customer_overview,omitempty"`
	Answers          []AnswerOutput     `json:"answers"`
	Contacts         []ContactOutput    `json:"contacts"`
	ActionItems      []ActionItemOutput `json:"action_items"`
	Tags             []string           `json:"tags"`
	Products         []string           `json:"products"`
	FollowUpDate     string             `json:"follow_up_date,omitempty"`
	FollowUpNotes    string             `json:"follow_up_notes,omitempty"`
	Summary          string             `json:"summary,omitempty"`
	DriveURL         string             `json:"drive_url,omitempty"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
}

func (h *VisitHandlers) GetVisit(_ context.Context, request *mcp.CallToolRequest, input GetVisitInput) (*mcp.CallToolResult, VisitOutput, error) {
	v, err := h.lookup(input.ID)
	if err != nil {
		return nil, VisitOutput{}, err
	}
	return nil, visitToOutput(v), nil
}

type AddActionItemInput struct {
	VisitID     string `json:"visit_id" jsonschema:"Visit ID (required)"`
	Description string `json:"description" jsonschema:"What needs to happen (required)"`
	Owner       string `json:"owner,omitempty" jsonschema:"Who owns the item"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"Due date in YYYY-MM-DD format"`
}

func (h *VisitHandlers) AddActionItem(_ context.Context, request *mcp.CallToolRequest, input AddActionItemInput) (*mcp.CallToolResult, ActionItemOutput, error) {
	if input.Description == "" {
		return nil, ActionItemOutput{}, fmt.Errorf("description is required")
	}
	if err := checkDate(input.DueDate); err != nil {
		return nil, ActionItemOutput{}, fmt.Errorf("invalid due_date: %w", err)
	}

	v, err := h.lookup(input.VisitID)
	if err != nil {
		return nil, ActionItemOutput{}, err
	}

	item := v.AddActionItem(models.ActionItem{
		Description: input.Description,
		Owner:       input.Owner,
		DueDate:     input.DueDate,
	})
	v.Touch(h.now())
	if err := h.store.Save(v); err != nil {
		return nil, ActionItemOutput{}, fmt.Errorf("failed to save visit: %w", err)
	}
	return nil, actionItemToOutput(item), nil
}

type SetFollowUpInput struct {
	VisitID string `json:"visit_id" jsonschema:"Visit ID (required)"`
	Date    string `json:"date,omitempty" jsonschema:"Next follow-up date in YYYY-MM-DD format"`
	Notes   string `json:"notes,omitempty" jsonschema:"Follow-up notes"`
}

type FollowUpOutput struct {
	VisitID string `json:"visit_id"`
	Date    string `json:"date,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (h *VisitHandlers) SetFollowUp(_ context.Context, request *mcp.CallToolRequest, input SetFollowUpInput) (*mcp.CallToolResult, FollowUpOutput, error) {
	if err := checkDate(input.Date); err != nil {
		return nil, FollowUpOutput{}, fmt.Errorf("invalid date: %w", err)
	}

	v, err := h.lookup(input.VisitID)
	if err != nil {
		return nil, FollowUpOutput{}, err
	}

	v.FollowUpDate = input.Date
	v.FollowUpNotes = input.Notes
	v.Touch(h.now())
	if err := h.store.Save(v); err != nil {
		return nil, FollowUpOutput{}, fmt.Errorf("failed to save visit: %w", err)
	}
	return nil, FollowUpOutput{VisitID: v.ID.String(), Date: v.FollowUpDate, Notes: v.FollowUpNotes}, nil
}

func (h *VisitHandlers) lookup(raw string) (*models.Visit, error) {
	if raw == "" {
		return nil, fmt.Errorf("visit id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid visit id: %w", err)
	}
	return h.store.Get(id)
}

func checkDate(s string) error {
	if s == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", s)
	return err
}

func visitToListing(v *models.Visit) VisitListing {
	return VisitListing{
		ID:           v.ID.String(),
		CustomerName: v.CustomerName,
		AccountID:    v.AccountID,
		Health:       v.HealthScore.Label(),
		Answered:     v.AnsweredCount(),
		Questions:    len(v.Prompts),
		HasSummary:   v.GeneratedSummary != "",
		DriveFileID:  v.DriveFileID,
		UpdatedAt:    v.UpdatedAt.Format(time.RFC3339),
	}
}

func actionItemToOutput(a models.ActionItem) ActionItemOutput {
	return ActionItemOutput{
		ID:          a.ID.String(),
		Description: a.Description,
		Owner:       a.Owner,
		DueDate:     a.DueDate,
		Completed:   a.Completed,
	}
}

func visitToOutput(v *models.Visit) VisitOutput {
	out := VisitOutput{
		ID:               v.ID.String(),
		CustomerName:     v.CustomerName,
		AccountID:        v.AccountID,
		ARR:              v.ARR,
		Health:           v.HealthScore.Label(),
		CustomerOverview: v.CustomerSummary,
		Answers:          []AnswerOutput{},
		Contacts:         []ContactOutput{},
		ActionItems:      []ActionItemOutput{},
		Tags:             []string{},
		Products:         []string{},
		FollowUpDate:     v.FollowUpDate,
		FollowUpNotes:    v.FollowUpNotes,
		Summary:          v.GeneratedSummary,
		CreatedAt:        v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        v.UpdatedAt.Format(time.RFC3339),
	}
	if v.DriveFileID != "" {
		out.DriveURL = drive.FileURL(v.DriveFileID)
	}

	for _, p := range v.Prompts {
		out.Answers = append(out.Answers, AnswerOutput{Title: p.Title, Answer: p.Content(), HasAudio: p.Audio != nil})
	}
	for _, c := range v.Contacts {
		out.Contacts = append(out.Contacts, ContactOutput{Name: c.Name, Title: c.Title, Email: c.Email, Phone: c.Phone, Champion: c.IsChampion})
	}
	for _, a := range v.ActionItems {
		out.ActionItems = append(out.ActionItems, actionItemToOutput(a))
	}
	for _, t := range v.Tags {
		out.Tags = append(out.Tags, t.Label())
	}
	for _, o := range v.SellingOpportunities {
		out.Products = append(out.Products, o.Info().Label)
	}
	return out
}
