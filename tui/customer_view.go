// ABOUTME: Customer step: account fields, health score and the customer-intro recording
// ABOUTME: Every edit is written straight into the active visit
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/onsite/interview"
	"github.com/harperreed/onsite/models"
)

const (
	nameField = iota
	accountField
	arrField
	overviewField
	customerFieldCount
)

func (m *Model) initCustomerForm() {
	inputs := make([]textinput.Model, 3)

	inputs[nameField] = textinput.New()
	inputs[nameField].Placeholder = "Customer name"
	inputs[nameField].CharLimit = 120

	inputs[accountField] = textinput.New()
	inputs[accountField].Placeholder = "Account ID"
	inputs[accountField].CharLimit = 60

	inputs[arrField] = textinput.New()
	inputs[arrField].Placeholder = "ARR (e.g. $120,000)"
	inputs[arrField].CharLimit = 30

	m.customerInputs = inputs

	m.overview = textarea.New()
	m.overview.Placeholder = "Customer overview, or record the intro with ctrl+r"
	m.overview.SetHeight(4)
	m.overview.ShowLineNumbers = false
	m.overview.CharLimit = 0
}

func (m *Model) loadCustomerForm() {
	v := m.ws.Active()
	if v == nil {
		return
	}
	m.customerInputs[nameField].SetValue(v.CustomerName)
	m.customerInputs[accountField].SetValue(v.AccountID)
	m.customerInputs[arrField].SetValue(v.ARR)
	m.overview.SetValue(v.CustomerSummary)
	m.customerFocus = nameField
	m.updateCustomerFocus()
}

func (m *Model) updateCustomerFocus() {
	for i := range m.customerInputs {
		if i == m.customerFocus {
			m.customerInputs[i].Focus()
		} else {
			m.customerInputs[i].Blur()
		}
	}
	if m.customerFocus == overviewField {
		m.overview.Focus()
	} else {
		m.overview.Blur()
	}
}

func (m Model) renderCustomerView() string {
	var s strings.Builder
	v := m.ws.Active()
	if v == nil {
		return messageStyle.Render("No active visit")
	}

	s.WriteString(headerStyle.Render("Customer Information"))
	s.WriteString("\n\n")

	labels := []string{"Name", "Account ID", "ARR"}
	for i, input := range m.customerInputs {
		if i == m.customerFocus {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(labelStyle.Render(labels[i]))
		s.WriteString(input.View())
		s.WriteString("\n")
	}
	s.WriteString("  ")
	s.WriteString(labelStyle.Render("Health"))
	s.WriteString(v.HealthScore.Label())
	s.WriteString(messageStyle.Render("   (ctrl+e to change)"))
	s.WriteString("\n\n")

	if m.customerFocus == overviewField {
		s.WriteString("> ")
	} else {
		s.WriteString("  ")
	}
	s.WriteString(labelStyle.Render("Overview"))
	s.WriteString("\n")
	s.WriteString(m.overview.View())
	s.WriteString("\n\n")

	s.WriteString(headerStyle.Render(models.IntroTitle))
	s.WriteString("\n")
	s.WriteString(messageStyle.Render(models.IntroPrompt))
	s.WriteString("\n\n")
	s.WriteString(m.renderRecorder(m.intro))

	s.WriteString(renderHelp("Tab: Next field", "ctrl+r: Record/Stop", "ctrl+p: Play", "ctrl+x: Clear recording", "ctrl+n: Questions", "Esc: Back"))
	return s.String()
}

func (m Model) handleCustomerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.goTo(interview.StepStart)
		return m, nil
	case KeyNext:
		m.goTo(interview.StepPrompts)
		return m, nil
	case KeyTab:
		m.customerFocus = (m.customerFocus + 1) % customerFieldCount
		m.updateCustomerFocus()
		return m, nil
	case KeyShiftTab:
		m.customerFocus = (m.customerFocus + customerFieldCount - 1) % customerFieldCount
		m.updateCustomerFocus()
		return m, nil
	case KeyRecord:
		return m.toggleRecording(m.intro)
	case KeyPlay:
		m.togglePlayback(m.intro)
		return m, nil
	case KeyClear:
		m.clearRecording(m.intro)
		return m, nil
	case KeyHealth:
		m.mutate(func(v *models.Visit) error {
			v.HealthScore = nextHealth(v.HealthScore)
			return nil
		})
		return m, nil
	}

	var cmd tea.Cmd
	if m.customerFocus == overviewField {
		before := m.overview.Value()
		m.overview, cmd = m.overview.Update(msg)
		if after := m.overview.Value(); after != before {
			m.mutate(func(v *models.Visit) error {
				v.CustomerSummary = after
				return nil
			})
		}
		return m, cmd
	}

	i := m.customerFocus
	before := m.customerInputs[i].Value()
	m.customerInputs[i], cmd = m.customerInputs[i].Update(msg)
	if after := m.customerInputs[i].Value(); after != before {
		m.mutate(func(v *models.Visit) error {
			switch i {
			case nameField:
				v.CustomerName = after
			case accountField:
				v.AccountID = after
			case arrField:
				v.ARR = after
			}
			return nil
		})
	}
	return m, cmd
}

func nextHealth(h models.HealthScore) models.HealthScore {
	for i, s := range models.HealthScores {
		if s == h {
			return models.HealthScores[(i+1)%len(models.HealthScores)]
		}
	}
	return models.HealthGreen
}
