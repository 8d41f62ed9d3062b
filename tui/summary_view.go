// ABOUTME: Summary step: generate the recap, then export it as PDF or upload it to Drive
// ABOUTME: Failures are shown in the status line and leave the visit untouched
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/onsite/drive"
	"github.com/harperreed/onsite/export"
	"github.com/harperreed/onsite/interview"
)

func (m *Model) refreshSummary() {
	v := m.ws.Active()
	if v == nil {
		m.summaryView.SetContent("")
		return
	}
	if v.GeneratedSummary == "" {
		m.summaryView.SetContent(messageStyle.Render("No summary yet. Press g to generate one."))
		return
	}
	m.summaryView.SetContent(export.CleanMarkdown(v.GeneratedSummary))
}

func (m Model) renderSummaryView() string {
	var s strings.Builder
	v := m.ws.Active()
	if v == nil {
		return messageStyle.Render("No active visit")
	}

	s.WriteString(headerStyle.Render("Visit Summary: " + visitName(*v)))
	s.WriteString("\n")
	s.WriteString(messageStyle.Render(fmt.Sprintf("%d of %d questions answered, %d contacts, %d action items",
		v.AnsweredCount(), len(v.Prompts), len(v.Contacts), len(v.ActionItems))))
	s.WriteString("\n\n")
	s.WriteString(boxStyle.Render(m.summaryView.View()))
	s.WriteString("\n")

	if v.DriveFileID != "" {
		s.WriteString(readyStyle.Render("✓ Uploaded: " + drive.FileURL(v.DriveFileID)))
		s.WriteString("\n")
	}

	var help []string
	if m.ws.GenerationConfigured() {
		help = append(help, "g: Generate")
	} else {
		help = append(help, "g: Generate (no provider configured)")
	}
	if v.GeneratedSummary != "" {
		help = append(help, "e: Save PDF")
		if m.ws.UploadConfigured() {
			help = append(help, "u: Upload to Drive")
		}
	}
	help = append(help, "↑/↓: Scroll", "n: New visit", "r: Summaries", "Esc: Details")
	s.WriteString(renderHelp(help...))
	return s.String()
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc, KeyBack:
		m.goTo(interview.StepDetails)
		return m, nil
	case KeyNew:
		m.beginVisit()
		return m, nil
	case KeyRepo:
		m.openRepository()
		return m, nil
	case KeyGenerate:
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Generating summary…"
		return m, tea.Batch(m.spinner.Tick, generateCmd(m))
	case KeyPublish:
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Uploading to Google Drive…"
		return m, tea.Batch(m.spinner.Tick, uploadToDriveCmd(m))
	case KeyExportPDF:
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Saving PDF…"
		return m, tea.Batch(m.spinner.Tick, exportCmd(m))
	}

	var cmd tea.Cmd
	m.summaryView, cmd = m.summaryView.Update(msg)
	return m, cmd
}

func generateCmd(m Model) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		text, err := ws.GenerateSummary(context.Background())
		return summaryDoneMsg{text: text, err: err}
	}
}

func uploadToDriveCmd(m Model) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		id, err := ws.ExportAndUpload(context.Background())
		return uploadDoneMsg{id: id, err: err}
	}
}

func exportCmd(m Model) tea.Cmd {
	v := m.ws.Active()
	dir := m.exportDir
	return func() tea.Msg {
		if v == nil {
			return exportDoneMsg{err: fmt.Errorf("no active visit")}
		}
		path := filepath.Join(dir, export.FileName(v, time.Now()))
		if err := export.WriteFile(v, path); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

func (m Model) handleSummaryDone(msg summaryDoneMsg) Model {
	m.busy = ""
	if msg.err != nil {
		m.setError("Summary generation failed: " + describeError(msg.err))
		return m
	}
	m.refreshSummary()
	m.summaryView.GotoTop()
	m.setStatus("Summary generated")
	return m
}

func (m Model) handleUploadDone(msg uploadDoneMsg) Model {
	m.busy = ""
	if msg.err != nil {
		m.setError("Upload failed: " + describeError(msg.err))
		return m
	}
	m.setStatus("Uploaded to Google Drive: " + drive.FileURL(msg.id))
	return m
}
