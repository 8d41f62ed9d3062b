// ABOUTME: Tests for the visit dashboard statistics
// ABOUTME: Covers health counts, overdue action items, follow-ups and stale drafts
package viz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/onsite/models"
)

func TestGenerateDashboardStats(t *testing.T) {
	now := time.Date(2025, 5, 20, 15, 0, 0, 0, time.UTC)

	acme := models.NewVisit(now.AddDate(0, 0, -2))
	acme.CustomerName = "Acme"
	acme.GeneratedSummary = "# Acme"
	acme.DriveFileID = "file-1"
	acme.HealthScore = models.HealthRed
	acme.AddContact(models.Contact{Name: "Dana"})
	acme.AddActionItem(models.ActionItem{Description: "Ship scanners", DueDate: "2025-05-15"})
	acme.AddActionItem(models.ActionItem{Description: "Done already", DueDate: "2025-05-01", Completed: true})
	acme.AddActionItem(models.ActionItem{Description: "No date"})
	acme.FollowUpDate = "2025-05-22"
	acme.ToggleOpportunity(models.OpportunityPickToLight)

	globex := models.NewVisit(now)
	globex.CustomerName = "Globex"
	globex.GeneratedSummary = "# Globex"
	globex.HealthScore = models.HealthYellow
	globex.FollowUpDate = "2025-06-30"
	globex.ToggleOpportunity(models.OpportunityPickToLight)
	globex.ToggleOpportunity(models.OpportunityAIPicking)

	stale := models.NewVisit(now.AddDate(0, 0, -30))
	fresh := models.NewVisit(now.AddDate(0, 0, -1))
	fresh.CustomerName = "Initech"
	fresh.FollowUpDate = "not a date"

	stats := GenerateDashboardStats([]models.Visit{*acme, *globex, *stale, *fresh}, now)

	assert.Equal(t, 4, stats.TotalVisits)
	assert.Equal(t, 2, stats.TotalRecaps)
	assert.Equal(t, 2, stats.TotalDrafts)
	assert.Equal(t, 1, stats.TotalContacts)
	assert.Equal(t, 2, stats.OpenActionItems)
	assert.Equal(t, 1, stats.UploadedToDrive)
	assert.Equal(t, 2, stats.HealthCounts[models.HealthGreen])
	assert.Equal(t, 1, stats.HealthCounts[models.HealthRed])

	require.Len(t, stats.AtRisk, 1)
	assert.Equal(t, "Acme", stats.AtRisk[0].Customer)

	require.Len(t, stats.OverdueActions, 1)
	assert.Equal(t, "Ship scanners", stats.OverdueActions[0].Description)
	assert.Equal(t, 5, stats.OverdueActions[0].DaysOverdue)

	require.Len(t, stats.UpcomingFollowUp, 1)
	assert.Equal(t, 2, stats.UpcomingFollowUp[0].Days)

	require.Len(t, stats.StaleDrafts, 1)
	assert.Equal(t, "Untitled visit", stats.StaleDrafts[0].Customer)

	require.NotEmpty(t, stats.TopOpportunities)
	assert.Equal(t, models.OpportunityPickToLight.Info().Label, stats.TopOpportunities[0].Label)
	assert.Equal(t, 2, stats.TopOpportunities[0].Count)
}

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	v := models.NewVisit(now)
	v.CustomerName = "Acme"
	v.HealthScore = models.HealthRed
	v.FollowUpDate = "2025-05-20"

	out := RenderDashboard(GenerateDashboardStats([]models.Visit{*v}, now))
	assert.Contains(t, out, "ONSITE VISIT DASHBOARD")
	assert.Contains(t, out, "██████████")
	assert.Contains(t, out, "Acme 2025-05-20 (today)")
	assert.Contains(t, out, "🔴 Acme - at risk")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(GenerateDashboardStats(nil, time.Now()))
	assert.Contains(t, out, "No visits yet")
	assert.Contains(t, out, "📋 0 visits")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}
