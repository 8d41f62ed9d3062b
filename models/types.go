// ABOUTME: Data models for onsite visit recaps
// ABOUTME: Defines Visit, PromptAnswer, Contact, ActionItem, Attachment and AudioRef structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// AudioRef points at a captured audio blob owned by exactly one PromptAnswer.
type AudioRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}

// PromptAnswer is one interview question plus whatever was captured for it.
// Locator is a playback handle for Audio and is never persisted; it is
// re-issued when a visit becomes active.
type PromptAnswer struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Prompt     string    `json:"prompt"`
	Audio      *AudioRef `json:"audio,omitempty"`
	Locator    string    `json:"-"`
	TypedText  string    `json:"typed_text"`
	Transcript string    `json:"transcript"`
}

// Answered reports whether the answer holds any content at all.
func (p PromptAnswer) Answered() bool {
	return p.Audio != nil || p.Transcript != "" || p.TypedText != ""
}

// Content returns the best text for the answer, preferring the transcript.
func (p PromptAnswer) Content() string {
	if p.Transcript != "" {
		return p.Transcript
	}
	return p.TypedText
}

type Contact struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Title      string    `json:"title,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	IsChampion bool      `json:"is_champion"`
}

type ActionItem struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Owner       string    `json:"owner,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	Completed   bool      `json:"completed"`
}

type Attachment struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type,omitempty"`
	URL  string    `json:"url,omitempty"`
	Size int64     `json:"size"`
}

// Visit is the complete record for one customer visit and the unit of persistence.
type Visit struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CustomerName    string `json:"customer_name"`
	AccountID       string `json:"account_id"`
	ARR             string `json:"arr"`
	CustomerSummary string `json:"customer_summary"`

	// Intro backs the customer-introduction recording surface.
	Intro   PromptAnswer   `json:"intro"`
	Prompts []PromptAnswer `json:"prompts"`

	Contacts    []Contact    `json:"contacts"`
	ActionItems []ActionItem `json:"action_items"`
	Attachments []Attachment `json:"attachments"`

	HealthScore          HealthScore          `json:"health_score"`
	Tags                 []Tag                `json:"tags"`
	SellingOpportunities []SellingOpportunity `json:"selling_opportunities"`

	FollowUpDate  string `json:"follow_up_date,omitempty"`
	FollowUpNotes string `json:"follow_up_notes,omitempty"`

	GeneratedSummary string `json:"generated_summary"`
	DriveFileID      string `json:"drive_file_id,omitempty"`
}

// NewVisit creates an empty visit with a fresh default interview.
func NewVisit(now time.Time) *Visit {
	prompts := make([]PromptAnswer, len(DefaultPrompts))
	for i, p := range DefaultPrompts {
		prompts[i] = PromptAnswer{
			ID:     uuid.New(),
			Title:  p.Title,
			Prompt: p.Prompt,
		}
	}

	return &Visit{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Intro: PromptAnswer{
			ID:     uuid.New(),
			Title:  IntroTitle,
			Prompt: IntroPrompt,
		},
		Prompts:              prompts,
		Contacts:             []Contact{},
		ActionItems:          []ActionItem{},
		Attachments:          []Attachment{},
		HealthScore:          HealthGreen,
		Tags:                 []Tag{},
		SellingOpportunities: []SellingOpportunity{},
	}
}

// Touch refreshes UpdatedAt. Every mutation of a visit goes through it.
func (v *Visit) Touch(now time.Time) {
	v.UpdatedAt = now
}

// AnsweredCount returns how many interview prompts hold content.
func (v *Visit) AnsweredCount() int {
	n := 0
	for _, p := range v.Prompts {
		if p.Answered() {
			n++
		}
	}
	return n
}

// HasCustomerInfo reports whether the customer step has been filled in.
func (v *Visit) HasCustomerInfo() bool {
	return v.CustomerName != "" || v.CustomerSummary != ""
}

// HasDetails reports whether any of the detail collections are populated.
func (v *Visit) HasDetails() bool {
	return len(v.Contacts) > 0 || len(v.ActionItems) > 0 || len(v.Tags) > 0
}

func (v *Visit) AddContact(c Contact) Contact {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	v.Contacts = append(v.Contacts, c)
	return c
}

// UpdateContact replaces the contact with the same ID.
func (v *Visit) UpdateContact(c Contact) error {
	for i := range v.Contacts {
		if v.Contacts[i].ID == c.ID {
			v.Contacts[i] = c
			return nil
		}
	}
	return ErrNotFound
}

func (v *Visit) RemoveContact(id uuid.UUID) error {
	for i := range v.Contacts {
		if v.Contacts[i].ID == id {
			v.Contacts = append(v.Contacts[:i], v.Contacts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (v *Visit) AddActionItem(a ActionItem) ActionItem {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	v.ActionItems = append(v.ActionItems, a)
	return a
}

func (v *Visit) UpdateActionItem(a ActionItem) error {
	for i := range v.ActionItems {
		if v.ActionItems[i].ID == a.ID {
			v.ActionItems[i] = a
			return nil
		}
	}
	return ErrNotFound
}

// ToggleActionItem flips the completed flag of an action item.
func (v *Visit) ToggleActionItem(id uuid.UUID) error {
	for i := range v.ActionItems {
		if v.ActionItems[i].ID == id {
			v.ActionItems[i].Completed = !v.ActionItems[i].Completed
			return nil
		}
	}
	return ErrNotFound
}

func (v *Visit) RemoveActionItem(id uuid.UUID) error {
	for i := range v.ActionItems {
		if v.ActionItems[i].ID == id {
			v.ActionItems = append(v.ActionItems[:i], v.ActionItems[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (v *Visit) AddAttachment(a Attachment) Attachment {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	v.Attachments = append(v.Attachments, a)
	return a
}

func (v *Visit) RemoveAttachment(id uuid.UUID) error {
	for i := range v.Attachments {
		if v.Attachments[i].ID == id {
			v.Attachments = append(v.Attachments[:i], v.Attachments[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ToggleTag adds the tag if absent and removes it if present.
func (v *Visit) ToggleTag(t Tag) {
	for i, existing := range v.Tags {
		if existing == t {
			v.Tags = append(v.Tags[:i], v.Tags[i+1:]...)
			return
		}
	}
	v.Tags = append(v.Tags, t)
}

func (v *Visit) HasTag(t Tag) bool {
	for _, existing := range v.Tags {
		if existing == t {
			return true
		}
	}
	return false
}

// ToggleOpportunity adds the selling opportunity if absent and removes it if present.
func (v *Visit) ToggleOpportunity(o SellingOpportunity) {
	for i, existing := range v.SellingOpportunities {
		if existing == o {
			v.SellingOpportunities = append(v.SellingOpportunities[:i], v.SellingOpportunities[i+1:]...)
			return
		}
	}
	v.SellingOpportunities = append(v.SellingOpportunities, o)
}

func (v *Visit) HasOpportunity(o SellingOpportunity) bool {
	for _, existing := range v.SellingOpportunities {
		if existing == o {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (v *Visit) Clone() *Visit {
	c := *v
	c.Intro = cloneAnswer(v.Intro)
	c.Prompts = make([]PromptAnswer, len(v.Prompts))
	for i, p := range v.Prompts {
		c.Prompts[i] = cloneAnswer(p)
	}
	c.Contacts = append([]Contact{}, v.Contacts...)
	c.ActionItems = append([]ActionItem{}, v.ActionItems...)
	c.Attachments = append([]Attachment{}, v.Attachments...)
	c.Tags = append([]Tag{}, v.Tags...)
	c.SellingOpportunities = append([]SellingOpportunity{}, v.SellingOpportunities...)
	return &c
}

func cloneAnswer(p PromptAnswer) PromptAnswer {
	if p.Audio != nil {
		a := *p.Audio
		p.Audio = &a
	}
	return p
}
