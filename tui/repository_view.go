// ABOUTME: Summary repository: search past visits and preview their recaps
// ABOUTME: Enter opens a visit on its summary step
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/onsite/export"
	"github.com/harperreed/onsite/interview"
)

func (m *Model) initRepositoryForm() {
	m.search = textinput.New()
	m.search.Placeholder = "Search customer, account or summary"
	m.search.CharLimit = 100
	m.search.Prompt = "/ "
}

func (m *Model) openRepository() {
	m.intro.StopAllMedia()
	m.question.StopAllMedia()
	m.browsing = true
	m.search.SetValue("")
	m.search.Focus()
	m.resultCursor = 0
	m.refreshResults()
}

func (m *Model) refreshResults() {
	results, err := m.ws.Repository(m.search.Value())
	if err != nil {
		m.setError("Could not load summaries: " + err.Error())
		results = nil
	}
	m.results = results
	if m.resultCursor >= len(m.results) {
		m.resultCursor = max(len(m.results)-1, 0)
	}
	m.refreshPreview()
}

func (m *Model) refreshPreview() {
	if len(m.results) == 0 {
		m.preview.SetContent("")
		return
	}
	m.preview.SetContent(export.CleanMarkdown(m.results[m.resultCursor].GeneratedSummary))
	m.preview.GotoTop()
}

func (m Model) renderRepositoryView() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Visit Summaries"))
	s.WriteString("\n\n")
	s.WriteString(m.search.View())
	s.WriteString("\n\n")

	if len(m.results) == 0 {
		if m.search.Value() != "" {
			s.WriteString(messageStyle.Render("No summaries match your search"))
		} else {
			s.WriteString(messageStyle.Render("No summaries yet"))
		}
		s.WriteString("\n")
	}

	for i, v := range m.results {
		line := fmt.Sprintf("%-28s %-12s %s", visitName(v), v.AccountID, v.UpdatedAt.Local().Format("Jan 2 2006"))
		if v.DriveFileID != "" {
			line += "  ☁"
		}
		if i == m.resultCursor {
			s.WriteString("▶ " + selectedStyle.Render(line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}

	if len(m.results) > 0 {
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(m.preview.View()))
		s.WriteString("\n")
	}

	if m.confirmDelete != "" {
		s.WriteString(errorStyle.Render("Press ctrl+d again to delete this visit and its recordings"))
		s.WriteString("\n")
	}

	s.WriteString(renderHelp("Type to search", "↑/↓: Select", "PgUp/PgDn: Scroll preview", "Enter: Open", "ctrl+d: Delete", "Esc: Back"))
	return s.String()
}

func (m Model) handleRepositoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.search.Blur()
		m.browsing = false
		m.goTo(interview.StepStart)
		return m, nil
	case KeyUp:
		if m.resultCursor > 0 {
			m.resultCursor--
			m.refreshPreview()
		}
		return m, nil
	case KeyDown:
		if m.resultCursor < len(m.results)-1 {
			m.resultCursor++
			m.refreshPreview()
		}
		return m, nil
	case KeyPgUp, KeyPgDown:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	case KeyEnter:
		if len(m.results) > 0 {
			m.search.Blur()
			m.openVisit(m.results[m.resultCursor], interview.StepSummary)
		}
		return m, nil
	case KeyDelete:
		if len(m.results) == 0 {
			return m, nil
		}
		target := m.results[m.resultCursor]
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
		m.refreshResults()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.resultCursor = 0
		m.refreshResults()
	}
	return m, cmd
}
