// ABOUTME: Question step: one interview prompt at a time with recording and typed notes
// ABOUTME: Moving between prompts stops all media and rebinds the question recorder
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/onsite/interview"
)

func (m *Model) initPromptForm() {
	m.notes = textarea.New()
	m.notes.Placeholder = "Type notes for this question"
	m.notes.SetHeight(5)
	m.notes.ShowLineNumbers = false
	m.notes.CharLimit = 0

	m.uploadPath = textinput.New()
	m.uploadPath.Placeholder = "/path/to/recording.m4a"
	m.uploadPath.CharLimit = 512
}

// bindQuestion points the question recorder at the current prompt.
func (m *Model) bindQuestion() {
	m.question.Rebind(m.ws.PromptBinding(m.nav.Position()))
	m.notes.SetValue(m.question.Current().TypedText)
	m.notes.Focus()
	m.uploading = false
	m.uploadPath.Blur()
}

func (m Model) renderPromptView() string {
	var s strings.Builder
	v := m.ws.Active()
	if v == nil {
		return messageStyle.Render("No active visit")
	}

	pos := m.nav.Position()
	answer := m.question.Current()

	s.WriteString(messageStyle.Render(fmt.Sprintf("Question %d of %d   %d answered", pos+1, m.nav.Len(), interview.CountAnswered(v.Prompts))))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(answer.Title))
	s.WriteString("\n")
	s.WriteString(answer.Prompt)
	s.WriteString("\n\n")

	s.WriteString(m.renderRecorder(m.question))
	s.WriteString("\n")

	if m.uploading {
		s.WriteString(labelStyle.Render("Audio file"))
		s.WriteString(m.uploadPath.View())
		s.WriteString("\n")
		s.WriteString(renderHelp("Enter: Attach", "Esc: Cancel"))
		return s.String()
	}

	s.WriteString(labelStyle.Render("Notes"))
	s.WriteString("\n")
	s.WriteString(m.notes.View())
	s.WriteString("\n")

	next := "ctrl+n: Next"
	if m.nav.Last() {
		next = "ctrl+n: Details"
	}
	s.WriteString(renderHelp("ctrl+r: Record/Stop", "ctrl+p: Play", "ctrl+x: Clear", "ctrl+o: Attach file", next, "ctrl+b: Previous", "ctrl+s: Skip", "Esc: Customer"))
	return s.String()
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.uploading {
		return m.handleUploadKeys(msg)
	}

	switch msg.String() {
	case KeyEsc:
		m.goTo(interview.StepCustomerInfo)
		return m, nil
	case KeyNext, KeySkip:
		if m.nav.Advance() {
			m.goTo(interview.StepDetails)
			return m, nil
		}
		m.bindQuestion()
		return m, nil
	case KeyBack:
		if m.nav.Position() == 0 {
			m.goTo(interview.StepCustomerInfo)
			return m, nil
		}
		m.nav.Retreat()
		m.bindQuestion()
		return m, nil
	case KeyRecord:
		return m.toggleRecording(m.question)
	case KeyPlay:
		m.togglePlayback(m.question)
		return m, nil
	case KeyClear:
		if m.clearRecording(m.question) {
			m.notes.SetValue("")
		}
		return m, nil
	case KeyUpload:
		m.uploading = true
		m.uploadPath.SetValue("")
		m.uploadPath.Focus()
		m.notes.Blur()
		return m, textinput.Blink
	}

	before := m.notes.Value()
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	if after := m.notes.Value(); after != before {
		if err := m.question.SetText(after); err != nil {
			m.setError(describeError(err))
		}
	}
	return m, cmd
}

func (m Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.uploading = false
		m.uploadPath.Blur()
		m.notes.Focus()
		return m, nil
	case KeyEnter:
		path := strings.TrimSpace(m.uploadPath.Value())
		m.uploading = false
		m.uploadPath.Blur()
		m.notes.Focus()
		if path == "" {
			return m, nil
		}
		m.setStatus("Attaching " + path + "…")
		return m, uploadCmd(m.question, expandHome(path))
	}

	var cmd tea.Cmd
	m.uploadPath, cmd = m.uploadPath.Update(msg)
	return m, cmd
}
