// ABOUTME: Tests for the onsite TUI model
// ABOUTME: Drives Update with key messages against a real workspace and scripted recorders
package tui

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/onsite/capture"
	"github.com/harperreed/onsite/db"
	"github.com/harperreed/onsite/interview"
	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/recording"
	"github.com/harperreed/onsite/summary"
	"github.com/harperreed/onsite/visit"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(context.Context, summary.Request) (string, error) {
	return s.text, s.err
}

type rig struct {
	m        Model
	ws       *visit.Workspace
	intro    *recording.Controller
	question *recording.Controller
}

func newRig(t *testing.T, gen summary.Generator) *rig {
	t.Helper()
	logger := log.New(io.Discard)

	backend, err := db.OpenBadger(filepath.Join(t.TempDir(), "visits"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	lib, err := media.NewLibrary(filepath.Join(t.TempDir(), "audio"), logger)
	require.NoError(t, err)

	ws := visit.NewWorkspace(visit.Config{
		Store:    db.NewVisitStore(backend, logger),
		Library:  lib,
		Composer: summary.Composer{Generator: gen},
		Logger:   logger,
	})

	device := capture.Exclusive(&capture.ScriptedDevice{PCM: "pcm"})
	newController := func(name, live string) *recording.Controller {
		sess := capture.NewSession(capture.Options{
			Device:  device,
			Library: lib,
			Feed:    &capture.ScriptedFeed{Results: []string{live}},
			Clock:   &capture.ManualClock{},
			Logger:  logger,
		})
		return recording.NewController(recording.Config{Name: name, Session: sess, Library: lib, Logger: logger}, nil)
	}

	r := &rig{
		ws:       ws,
		intro:    newController("intro", "they run three warehouses"),
		question: newController("question", "the scanners keep dropping"),
	}
	r.m = NewModel(Deps{Workspace: ws, Intro: r.intro, Question: r.question, Logger: logger, ExportDir: t.TempDir()})

	t.Cleanup(func() {
		r.intro.StopAllMedia()
		r.question.StopAllMedia()
		r.intro.Wait()
		r.question.Wait()
	})
	return r
}

var ctrlKeys = map[string]tea.KeyType{
	"enter":  tea.KeyEnter,
	"esc":    tea.KeyEsc,
	"tab":    tea.KeyTab,
	"up":     tea.KeyUp,
	"down":   tea.KeyDown,
	"pgup":   tea.KeyPgUp,
	"pgdown": tea.KeyPgDown,
	" ":      tea.KeySpace,
	"ctrl+n": tea.KeyCtrlN,
	"ctrl+b": tea.KeyCtrlB,
	"ctrl+s": tea.KeyCtrlS,
	"ctrl+r": tea.KeyCtrlR,
	"ctrl+p": tea.KeyCtrlP,
	"ctrl+x": tea.KeyCtrlX,
	"ctrl+o": tea.KeyCtrlO,
	"ctrl+e": tea.KeyCtrlE,
	"ctrl+k": tea.KeyCtrlK,
	"ctrl+t": tea.KeyCtrlT,
	"ctrl+d": tea.KeyCtrlD,
}

func key(s string) tea.KeyMsg {
	if k, ok := ctrlKeys[s]; ok {
		return tea.KeyMsg{Type: k}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends keys in order and returns the last command produced.
func (r *rig) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = r.m.Update(key(k))
		r.m = next.(Model)
	}
	return cmd
}

func (r *rig) send(msg tea.Msg) {
	next, _ := r.m.Update(msg)
	r.m = next.(Model)
}

func TestStartScreenRenders(t *testing.T) {
	r := newRig(t, nil)

	out := r.m.View()
	assert.Contains(t, out, "ONSITE RECAP")
	assert.Contains(t, out, "No drafts")
}

func TestNewVisitCustomerFields(t *testing.T) {
	r := newRig(t, nil)

	r.press("n")
	require.Equal(t, interview.StepCustomerInfo, r.m.step)
	require.NotNil(t, r.ws.Active())

	r.press("Acme Corp", "tab", "A-42", "tab", "$120k", "ctrl+e")

	v := r.ws.Active()
	assert.Equal(t, "Acme Corp", v.CustomerName)
	assert.Equal(t, "A-42", v.AccountID)
	assert.Equal(t, "$120k", v.ARR)
	assert.Equal(t, models.HealthYellow, v.HealthScore)
	assert.Contains(t, r.m.View(), "Customer Information")
}

func TestIntroRecordingFillsOverview(t *testing.T) {
	r := newRig(t, nil)
	r.press("n")

	start := r.press("ctrl+r")
	require.NotNil(t, start)
	r.send(start())
	assert.Equal(t, recording.Recording, r.intro.State())
	assert.Contains(t, r.m.View(), "REC")

	stop := r.press("ctrl+r")
	require.NotNil(t, stop)
	r.send(stop())

	assert.Equal(t, recording.Ready, r.intro.State())
	v := r.ws.Active()
	assert.Equal(t, "they run three warehouses", v.Intro.Transcript)
	assert.Equal(t, "they run three warehouses", v.CustomerSummary)
	assert.Equal(t, "they run three warehouses", r.m.overview.Value())
}

func TestPromptNotesAndNavigation(t *testing.T) {
	r := newRig(t, nil)
	r.press("n", "ctrl+n")
	require.Equal(t, interview.StepPrompts, r.m.step)
	assert.Contains(t, r.m.View(), models.DefaultPrompts[0].Title)

	r.press("big account")
	assert.Equal(t, "big account", r.ws.Active().Prompts[0].TypedText)
	assert.Equal(t, recording.Ready, r.question.State())

	r.press("ctrl+n")
	assert.Equal(t, 1, r.m.nav.Position())
	assert.Empty(t, r.m.notes.Value())
	assert.Equal(t, recording.Idle, r.question.State())

	r.press("ctrl+b")
	assert.Equal(t, 0, r.m.nav.Position())
	assert.Equal(t, "big account", r.m.notes.Value())

	r.press("ctrl+b")
	assert.Equal(t, interview.StepCustomerInfo, r.m.step)
}

func TestAdvancingPastLastPromptOpensDetails(t *testing.T) {
	r := newRig(t, nil)
	r.press("n", "ctrl+n")

	for i := 0; i < len(models.DefaultPrompts)-1; i++ {
		r.press("ctrl+s")
	}
	assert.Equal(t, interview.StepPrompts, r.m.step)
	assert.True(t, r.m.nav.Last())

	r.press("ctrl+n")
	assert.Equal(t, interview.StepDetails, r.m.step)

	r.press("esc")
	assert.Equal(t, interview.StepPrompts, r.m.step)
	assert.True(t, r.m.nav.Last())
}

func TestNavigatingAwayStopsRecording(t *testing.T) {
	r := newRig(t, nil)
	r.press("n", "ctrl+n")

	start := r.press("ctrl+r")
	r.send(start())
	require.Equal(t, recording.Recording, r.question.State())

	r.press("ctrl+n")
	r.question.Wait()

	assert.NotEqual(t, recording.Recording, r.question.State())
	first := r.ws.Active().Prompts[0]
	require.NotNil(t, first.Audio)
	assert.Equal(t, "the scanners keep dropping", first.Transcript)
	assert.Equal(t, 1, r.m.nav.Position())
}

func TestClearResetsNotes(t *testing.T) {
	r := newRig(t, nil)
	r.press("n", "ctrl+n", "draft note")

	r.press("ctrl+x")

	assert.Empty(t, r.m.notes.Value())
	assert.False(t, r.ws.Active().Prompts[0].Answered())
	assert.Equal(t, recording.Idle, r.question.State())
}

func TestDetailsSections(t *testing.T) {
	r := newRig(t, nil)
	r.press("n")
	r.m.goTo(interview.StepDetails)

	r.press("Dana Ruiz", "tab", "VP Ops", "enter")
	v := r.ws.Active()
	require.Len(t, v.Contacts, 1)
	assert.Equal(t, "Dana Ruiz", v.Contacts[0].Name)
	assert.Equal(t, "VP Ops", v.Contacts[0].Title)

	r.press("ctrl+k")
	assert.True(t, r.ws.Active().Contacts[0].IsChampion)

	r.press("pgdown", "Send quote", "tab", "Sam", "enter", "ctrl+t")
	v = r.ws.Active()
	require.Len(t, v.ActionItems, 1)
	assert.Equal(t, "Sam", v.ActionItems[0].Owner)
	assert.True(t, v.ActionItems[0].Completed)

	r.press("pgdown", " ")
	assert.True(t, r.ws.Active().HasTag(models.Tags[0]))

	r.press("pgdown", "down", "enter")
	assert.True(t, r.ws.Active().HasOpportunity(models.SellingOpportunities[1]))

	r.press("pgup", "pgup", "ctrl+d")
	assert.Empty(t, r.ws.Active().ActionItems)
}

func TestDetailsRequiresFirstField(t *testing.T) {
	r := newRig(t, nil)
	r.press("n")
	r.m.goTo(interview.StepDetails)

	r.press("enter")
	assert.Empty(t, r.ws.Active().Contacts)
	assert.True(t, r.m.statusErr)
}

func TestFollowUpFieldsSaveAsTyped(t *testing.T) {
	r := newRig(t, nil)
	r.press("n")
	r.m.goTo(interview.StepDetails)

	r.press("pgup", "2025-06-01", "tab", "check pilot")
	v := r.ws.Active()
	assert.Equal(t, "2025-06-01", v.FollowUpDate)
	assert.Equal(t, "check pilot", v.FollowUpNotes)
}

func TestGenerateSummary(t *testing.T) {
	r := newRig(t, stubGenerator{text: "## Executive Summary\nGreat visit."})
	r.press("n")
	r.m.goTo(interview.StepSummary)

	cmd := r.press("g")
	require.NotNil(t, cmd)
	assert.NotEmpty(t, r.m.busy)

	r.send(generateCmd(r.m)())

	assert.Empty(t, r.m.busy)
	assert.False(t, r.m.statusErr)
	assert.Equal(t, "## Executive Summary\nGreat visit.", r.ws.Active().GeneratedSummary)
	assert.Contains(t, r.m.View(), "Great visit.")
}

func TestGenerateSummaryFailure(t *testing.T) {
	r := newRig(t, stubGenerator{err: errors.New("rate limited")})
	r.press("n")
	r.m.goTo(interview.StepSummary)

	r.send(generateCmd(r.m)())

	assert.True(t, r.m.statusErr)
	assert.Contains(t, r.m.status, "rate limited")
	assert.Empty(t, r.ws.Active().GeneratedSummary)
}

func TestGenerateWithoutProvider(t *testing.T) {
	r := newRig(t, nil)
	r.press("n")
	r.m.goTo(interview.StepSummary)

	r.send(generateCmd(r.m)())
	assert.Contains(t, r.m.status, "No summary provider configured")
}

func TestUploadWithoutDrive(t *testing.T) {
	r := newRig(t, nil)
	r.press("n")
	r.m.goTo(interview.StepSummary)

	r.send(uploadToDriveCmd(r.m)())
	assert.True(t, r.m.statusErr)
	assert.Contains(t, r.m.status, "onsite auth")
}

func TestExportWritesPDF(t *testing.T) {
	r := newRig(t, stubGenerator{text: "Recap"})
	r.press("n", "Acme")
	r.m.goTo(interview.StepSummary)
	r.send(generateCmd(r.m)())

	r.send(exportCmd(r.m)())

	assert.False(t, r.m.statusErr, r.m.status)
	assert.True(t, strings.HasPrefix(r.m.status, "Saved "))
	assert.Contains(t, r.m.status, "onsite-recap-Acme-")
}

func TestRepositorySearchAndOpen(t *testing.T) {
	r := newRig(t, nil)
	for _, name := range []string{"Acme", "Globex"} {
		_, err := r.ws.Begin()
		require.NoError(t, err)
		n := name
		require.NoError(t, r.ws.Mutate(func(v *models.Visit) error {
			v.CustomerName = n
			v.GeneratedSummary = n + " recap"
			return nil
		}))
	}
	r.ws.Close()

	r.press("r")
	require.True(t, r.m.browsing)
	assert.Len(t, r.m.results, 2)

	r.press("glob")
	require.Len(t, r.m.results, 1)
	assert.Contains(t, r.m.View(), "Globex")

	r.press("enter")
	assert.False(t, r.m.browsing)
	assert.Equal(t, interview.StepSummary, r.m.step)
	assert.Equal(t, "Globex", r.ws.Active().CustomerName)
}

func TestDeleteDraftNeedsConfirmation(t *testing.T) {
	r := newRig(t, nil)
	r.press("n", "esc")
	require.Equal(t, interview.StepStart, r.m.step)
	require.Len(t, r.m.drafts, 1)

	r.press("ctrl+d")
	assert.Len(t, r.m.drafts, 1)
	assert.Contains(t, r.m.View(), "Press ctrl+d again")

	r.press("ctrl+d")
	assert.Empty(t, r.m.drafts)
	assert.Nil(t, r.ws.Active())
}

func TestResumeDraft(t *testing.T) {
	r := newRig(t, nil)
	r.press("n", "Initech", "esc")

	r.press("enter")
	assert.Equal(t, interview.StepCustomerInfo, r.m.step)
	assert.Equal(t, "Initech", r.m.customerInputs[nameField].Value())
}

func TestProgressShownDuringVisit(t *testing.T) {
	r := newRig(t, nil)
	r.press("n", "Acme")

	out := r.m.View()
	assert.Contains(t, out, "Customer")
	assert.Contains(t, out, "15%")
}
