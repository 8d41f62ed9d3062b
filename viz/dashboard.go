// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides an ASCII overview of account health, open work and upcoming follow-ups
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/onsite/models"
)

const dateLayout = "2006-01-02"

type DashboardStats struct {
	// Account health across all visits
	HealthCounts map[models.HealthScore]int

	// Overall stats
	TotalVisits      int
	TotalRecaps      int
	TotalDrafts      int
	TotalContacts    int
	OpenActionItems  int
	UploadedToDrive  int
	TopOpportunities []OpportunityCount

	// Needs attention
	AtRisk           []AccountItem
	OverdueActions   []ActionDue
	UpcomingFollowUp []AccountItem
	StaleDrafts      []AccountItem
}

type OpportunityCount struct {
	Label string
	Count int
}

type AccountItem struct {
	Customer string
	Date     string
	Days     int
}

type ActionDue struct {
	Customer    string
	Description string
	DueDate     string
	DaysOverdue int
}

// GenerateDashboardStats summarizes visits as of now. Dates that do not
// parse as YYYY-MM-DD are ignored for the time-based checks.
func GenerateDashboardStats(visits []models.Visit, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		HealthCounts: make(map[models.HealthScore]int),
		TotalVisits:  len(visits),
	}
	today := truncateDay(now)
	opportunities := make(map[models.SellingOpportunity]int)

	for _, v := range visits {
		name := v.CustomerName
		if name == "" {
			name = "Untitled visit"
		}

		stats.HealthCounts[v.HealthScore]++
		stats.TotalContacts += len(v.Contacts)
		if v.DriveFileID != "" {
			stats.UploadedToDrive++
		}
		for _, o := range v.SellingOpportunities {
			opportunities[o]++
		}

		if v.GeneratedSummary != "" {
			stats.TotalRecaps++
		} else {
			stats.TotalDrafts++
			// Drafts untouched for two weeks
			if days := int(today.Sub(truncateDay(v.UpdatedAt)).Hours() / 24); days > 14 {
				stats.StaleDrafts = append(stats.StaleDrafts, AccountItem{Customer: name, Date: v.UpdatedAt.Format(dateLayout), Days: days})
			}
		}

		if v.HealthScore == models.HealthRed {
			stats.AtRisk = append(stats.AtRisk, AccountItem{Customer: name, Date: v.UpdatedAt.Format(dateLayout)})
		}

		for _, a := range v.ActionItems {
			if a.Completed {
				continue
			}
			stats.OpenActionItems++
			due, err := time.ParseInLocation(dateLayout, a.DueDate, now.Location())
			if err != nil {
				continue
			}
			if days := int(today.Sub(due).Hours() / 24); days > 0 {
				stats.OverdueActions = append(stats.OverdueActions, ActionDue{
					Customer:    name,
					Description: a.Description,
					DueDate:     a.DueDate,
					DaysOverdue: days,
				})
			}
		}

		if follow, err := time.ParseInLocation(dateLayout, v.FollowUpDate, now.Location()); err == nil {
			if days := int(follow.Sub(today).Hours() / 24); days >= 0 && days <= 7 {
				stats.UpcomingFollowUp = append(stats.UpcomingFollowUp, AccountItem{Customer: name, Date: v.FollowUpDate, Days: days})
			}
		}
	}

	for o, n := range opportunities {
		stats.TopOpportunities = append(stats.TopOpportunities, OpportunityCount{Label: o.Info().Label, Count: n})
	}
	sort.Slice(stats.TopOpportunities, func(i, j int) bool {
		if stats.TopOpportunities[i].Count != stats.TopOpportunities[j].Count {
			return stats.TopOpportunities[i].Count > stats.TopOpportunities[j].Count
		}
		return stats.TopOpportunities[i].Label < stats.TopOpportunities[j].Label
	})
	sort.Slice(stats.OverdueActions, func(i, j int) bool {
		return stats.OverdueActions[i].DaysOverdue > stats.OverdueActions[j].DaysOverdue
	})
	sort.Slice(stats.UpcomingFollowUp, func(i, j int) bool {
		return stats.UpcomingFollowUp[i].Days < stats.UpcomingFollowUp[j].Days
	})

	return stats
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  ONSITE VISIT DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("ACCOUNT HEALTH\n")
	renderHealth(&out, stats.HealthCounts)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📋 %d visits  ✅ %d recaps  ✏️  %d drafts  ☁ %d on Drive\n",
		stats.TotalVisits, stats.TotalRecaps, stats.TotalDrafts, stats.UploadedToDrive))
	out.WriteString(fmt.Sprintf("  👥 %d contacts  📌 %d open action items\n\n",
		stats.TotalContacts, stats.OpenActionItems))

	if len(stats.TopOpportunities) > 0 {
		out.WriteString("SELLING OPPORTUNITIES\n")
		for i, o := range stats.TopOpportunities {
			if i == 5 {
				break
			}
			out.WriteString(fmt.Sprintf("  %-22s %d\n", o.Label, o.Count))
		}
		out.WriteString("\n")
	}

	if len(stats.UpcomingFollowUp) > 0 {
		out.WriteString("FOLLOW-UPS THIS WEEK\n")
		for _, f := range stats.UpcomingFollowUp {
			when := fmt.Sprintf("in %d days", f.Days)
			if f.Days == 0 {
				when = "today"
			}
			out.WriteString(fmt.Sprintf("  📅 %s %s (%s)\n", f.Customer, f.Date, when))
		}
		out.WriteString("\n")
	}

	// Needs attention
	if len(stats.AtRisk) > 0 || len(stats.OverdueActions) > 0 || len(stats.StaleDrafts) > 0 {
		out.WriteString("NEEDS ATTENTION\n")

		for _, a := range stats.AtRisk {
			out.WriteString(fmt.Sprintf("  🔴 %s - at risk\n", a.Customer))
		}
		if len(stats.OverdueActions) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d action items overdue\n", len(stats.OverdueActions)))
			for _, a := range stats.OverdueActions {
				out.WriteString(fmt.Sprintf("     %s: %s (%dd)\n", a.Customer, a.Description, a.DaysOverdue))
			}
		}
		if len(stats.StaleDrafts) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d drafts untouched for 14+ days\n", len(stats.StaleDrafts)))
		}
	}

	return out.String()
}

func renderHealth(out *strings.Builder, counts map[models.HealthScore]int) {
	// Find max count for scaling
	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		out.WriteString("  No visits yet\n")
		return
	}

	for _, h := range models.HealthScores {
		n := counts[h]

		// Calculate bar length (0-10 blocks)
		barLength := (n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-20s %s  %2d\n", h.Label(), bar, n))
	}
}
