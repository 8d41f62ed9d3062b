// ABOUTME: Start screen: begin a visit, resume a draft or browse past summaries
// ABOUTME: Drafts are saved visits that have no generated summary yet
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/onsite/interview"
	"github.com/harperreed/onsite/models"
)

func (m *Model) loadDrafts() {
	drafts, err := m.ws.Drafts()
	if err != nil {
		m.setError("Could not load drafts: " + err.Error())
		drafts = nil
	}
	m.drafts = drafts
	if m.draftCursor >= len(m.drafts) {
		m.draftCursor = max(len(m.drafts)-1, 0)
	}
}

func (m Model) renderStartView() string {
	var s strings.Builder

	s.WriteString("Record a customer visit one question at a time, then turn it into a recap.\n\n")

	s.WriteString(headerStyle.Render("Drafts"))
	s.WriteString("\n\n")

	if len(m.drafts) == 0 {
		s.WriteString(messageStyle.Render("No drafts. Press n to start a visit."))
		s.WriteString("\n")
	}
	for i, v := range m.drafts {
		line := fmt.Sprintf("%-28s %d/%d answered   %s",
			visitName(v), v.AnsweredCount(), len(v.Prompts), v.UpdatedAt.Local().Format("Jan 2 15:04"))
		if i == m.draftCursor {
			s.WriteString("▶ " + selectedStyle.Render(line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}

	if m.confirmDelete != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Press ctrl+d again to delete this draft and its recordings"))
		s.WriteString("\n")
	}

	s.WriteString(renderHelp("n: New visit", "Enter: Resume draft", "r: Summaries", "ctrl+d: Delete draft", "q: Quit"))
	return s.String()
}

func (m Model) handleStartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyEsc:
		return m, tea.Quit
	case KeyNew:
		m.beginVisit()
	case KeyRepo:
		m.openRepository()
	case KeyUp, "k":
		if m.draftCursor > 0 {
			m.draftCursor--
		}
	case KeyDown, "j":
		if m.draftCursor < len(m.drafts)-1 {
			m.draftCursor++
		}
	case KeyEnter:
		if len(m.drafts) > 0 {
			m.openVisit(m.drafts[m.draftCursor], interview.StepCustomerInfo)
		}
	case KeyDelete:
		if len(m.drafts) == 0 {
			return m, nil
		}
		target := m.drafts[m.draftCursor]
		if m.confirmDelete != target.ID.String() {
			m.confirmDelete = target.ID.String()
			return m, nil
		}
		m.confirmDelete = ""
		if err := m.ws.Delete(target.ID); err != nil {
			m.setError("Delete failed: " + err.Error())
		} else {
			m.setStatus("Deleted " + visitName(target))
		}
		m.loadDrafts()
	}
	return m, nil
}

func visitName(v models.Visit) string {
	if v.CustomerName != "" {
		return v.CustomerName
	}
	return "Untitled visit"
}
