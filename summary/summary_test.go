// ABOUTME: Tests for summary request building and composition
// ABOUTME: Covers section omission, answer rendering and generator failure handling
package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/onsite/models"
)

func sampleVisit() *models.Visit {
	v := models.NewVisit(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC))
	v.CustomerName = "Acme Fulfillment"
	v.AccountID = "ACME-42"
	v.ARR = "$120,000"
	v.CustomerSummary = "Three warehouses in the midwest."
	return v
}

func TestBuildWithActionItemsAndNoContacts(t *testing.T) {
	v := sampleVisit()
	v.AddActionItem(models.ActionItem{Description: "Send pricing", Owner: "Dana", DueDate: "2025-03-10"})
	v.AddActionItem(models.ActionItem{Description: "Book training", Completed: true})

	req := Build(v)

	assert.Contains(t, req.Prompt, "### Action Items")
	assert.Contains(t, req.Prompt, "- [ ] Send pricing (Owner: Dana, Due: 2025-03-10)")
	assert.Contains(t, req.Prompt, "- [x] Book training")
	assert.NotContains(t, req.Prompt, "Key Contacts Met")
	assert.Equal(t, SystemPrompt, req.System)
}

func TestBuildOmitsUnansweredPrompts(t *testing.T) {
	v := sampleVisit()
	v.Prompts[0].Transcript = "We toured the pick line."
	v.Prompts[2].Audio = &models.AudioRef{ID: "a1"}

	req := Build(v)

	assert.Contains(t, req.Prompt, "### "+v.Prompts[0].Title+"\nWe toured the pick line.")
	assert.Contains(t, req.Prompt, "### "+v.Prompts[2].Title+"\n"+audioOnlyNote)
	assert.NotContains(t, req.Prompt, "### "+v.Prompts[1].Title)
}

func TestBuildKeepsDistinctTypedNotes(t *testing.T) {
	v := sampleVisit()
	v.Prompts[0].Transcript = "spoken"
	v.Prompts[0].TypedText = "typed"
	v.Prompts[1].Transcript = "same"
	v.Prompts[1].TypedText = "same"

	req := Build(v)

	assert.Contains(t, req.Prompt, "spoken\n\nAdditional notes: typed")
	assert.Equal(t, 1, strings.Count(req.Prompt, "same"))
}

func TestBuildContactsAndOpportunities(t *testing.T) {
	v := sampleVisit()
	v.AddContact(models.Contact{Name: "Pat", Title: "VP Ops", Email: "pat@acme.test", IsChampion: true})
	v.ToggleOpportunity(models.OpportunityPickToLight)
	v.ToggleTag(models.TagAtRisk)

	req := Build(v)

	assert.Contains(t, req.Prompt, "- **Pat** (VP Ops) ⭐ Champion")
	assert.Contains(t, req.Prompt, "Email: pat@acme.test")
	assert.Contains(t, req.Prompt, "- **Pick-to-Light** - Visual picking assistance")
	assert.Contains(t, req.Prompt, "from the selected products above: Pick-to-Light")
	assert.Contains(t, req.Prompt, "- **Tags:** At Risk")
}

func TestBuildDefaults(t *testing.T) {
	req := Build(sampleVisit())

	assert.NotContains(t, req.Prompt, "### Action Items")
	assert.NotContains(t, req.Prompt, "Selected Products/Services")
	assert.Contains(t, req.Prompt, "- **Tags:** None")
	assert.Contains(t, req.Prompt, "- **Next Follow-up Date:** Not set")
	assert.Contains(t, req.Prompt, "- **Notes:** None")
	assert.Contains(t, req.Prompt, "None specified")
	assert.Contains(t, req.Prompt, "- **Account Health:** 🟢 Healthy")
}

func TestBuildIsDeterministic(t *testing.T) {
	v := sampleVisit()
	v.Prompts[3].TypedText = "notes"
	assert.Equal(t, Build(v), Build(v))
}

type stubGenerator struct {
	text  string
	err   error
	calls int
	last  Request
}

func (s *stubGenerator) Generate(_ context.Context, req Request) (string, error) {
	s.calls++
	s.last = req
	return s.text, s.err
}

func TestComposeWithoutGenerator(t *testing.T) {
	c := Composer{}
	assert.False(t, c.Configured())

	_, err := c.Compose(context.Background(), sampleVisit())
	assert.ErrorIs(t, err, models.ErrGenerationUnavailable)
}

func TestComposePassesRemoteErrorThrough(t *testing.T) {
	remote := errors.New("quota exceeded")
	gen := &stubGenerator{err: remote}

	_, err := Composer{Generator: gen}.Compose(context.Background(), sampleVisit())

	assert.Equal(t, remote, err)
	assert.Equal(t, 1, gen.calls)
}

func TestComposeLeavesVisitUntouched(t *testing.T) {
	v := sampleVisit()
	before := v.Clone()
	gen := &stubGenerator{text: "  # Summary\n"}

	text, err := Composer{Generator: gen}.Compose(context.Background(), v)
	require.NoError(t, err)

	assert.Equal(t, "# Summary", text)
	assert.Equal(t, before, v)
	assert.Contains(t, gen.last.Prompt, "Acme Fulfillment")
}

func TestComposeRejectsEmptyText(t *testing.T) {
	_, err := Composer{Generator: &stubGenerator{text: "   "}}.Compose(context.Background(), sampleVisit())
	assert.ErrorIs(t, err, models.ErrGenerationUnavailable)
}
