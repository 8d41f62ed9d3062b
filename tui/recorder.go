// ABOUTME: Shared rendering and commands for the two recording surfaces
// ABOUTME: Start, stop and upload run as commands so the screen stays live while they block
package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/recording"
)

func (m Model) renderRecorder(c *recording.Controller) string {
	var s strings.Builder
	snap := c.Snapshot()
	answer := c.Current()

	switch snap.State {
	case recording.Recording:
		s.WriteString(recordingStyle.Render(fmt.Sprintf("● REC %s / %s", clock(snap.Elapsed), clock(snap.Cutoff))))
		s.WriteString("\n")
		if snap.LiveTranscript != "" {
			s.WriteString(messageStyle.Render(snap.LiveTranscript))
		} else {
			s.WriteString(messageStyle.Render("Listening…"))
		}
		s.WriteString("\n")
		return boxStyle.Render(s.String()) + "\n"
	case recording.Processing:
		s.WriteString(m.spinner.View())
		s.WriteString(busyStyle.Render(" Transcribing…"))
		return boxStyle.Render(s.String()) + "\n"
	case recording.Ready:
		s.WriteString(readyStyle.Render("✓ Answered"))
	default:
		s.WriteString(messageStyle.Render("○ No answer yet"))
	}

	if answer.Audio != nil {
		s.WriteString(fmt.Sprintf("   audio: %s (%s)", answer.Audio.Name, sizeLabel(answer.Audio.Size)))
		if snap.Playing {
			s.WriteString(busyStyle.Render("  ▶ playing"))
		}
	}
	if answer.Transcript != "" {
		s.WriteString("\n\n")
		s.WriteString(answer.Transcript)
	}
	return boxStyle.Render(s.String()) + "\n"
}

func (m Model) toggleRecording(c *recording.Controller) (tea.Model, tea.Cmd) {
	switch c.State() {
	case recording.Recording:
		m.setStatus("Stopping…")
		return m, stopCmd(c)
	case recording.Processing:
		m.setError(describeError(recording.ErrBusy))
		return m, nil
	}
	m.setStatus("Starting microphone…")
	return m, startCmd(c)
}

func startCmd(c *recording.Controller) tea.Cmd {
	return func() tea.Msg {
		if err := c.Start(context.Background()); err != nil {
			return recordDoneMsg{err: err}
		}
		return recordDoneMsg{action: "Recording"}
	}
}

func stopCmd(c *recording.Controller) tea.Cmd {
	return func() tea.Msg {
		return recordDoneMsg{action: "Recording saved", err: c.Stop(context.Background())}
	}
}

// uploadCmd attaches an audio file from disk to the bound answer.
func uploadCmd(c *recording.Controller, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return recordDoneMsg{err: fmt.Errorf("read %s: %w", path, err)}
		}
		blob := media.Blob{
			Name:     filepath.Base(path),
			MIMEType: mime.TypeByExtension(filepath.Ext(path)),
			Data:     data,
		}
		if err := c.Upload(context.Background(), blob); err != nil {
			return recordDoneMsg{err: err}
		}
		return recordDoneMsg{action: "Attached " + blob.Name}
	}
}

func (m *Model) togglePlayback(c *recording.Controller) {
	if err := c.TogglePlayback(); err != nil {
		m.setError(describeError(err))
	}
}

func (m *Model) clearRecording(c *recording.Controller) bool {
	if err := c.Clear(); err != nil {
		m.setError(describeError(err))
		return false
	}
	m.setStatus("Cleared")
	return true
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func sizeLabel(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.0f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
