// ABOUTME: Tests for the visit workspace
// ABOUTME: Persistence on mutation, bindings, generation and upload failure handling, repository search
package visit

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/onsite/capture"
	"github.com/harperreed/onsite/db"
	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/recording"
	"github.com/harperreed/onsite/summary"
)

type memStore struct {
	mu      sync.Mutex
	visits  map[uuid.UUID]models.Visit
	order   []uuid.UUID
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{visits: map[uuid.UUID]models.Visit{}}
}

func (m *memStore) Save(v *models.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.visits[v.ID]; !ok {
		m.order = append(m.order, v.ID)
	}
	m.visits[v.ID] = *v.Clone()
	m.saves++
	return nil
}

func (m *memStore) LoadAll() ([]models.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Visit{}
	for _, id := range m.order {
		if v, ok := m.visits[id]; ok {
			out = append(out, *v.Clone())
		}
	}
	return out, nil
}

func (m *memStore) Get(id uuid.UUID) (*models.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return v.Clone(), nil
}

func (m *memStore) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visits[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.visits, id)
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(context.Context, summary.Request) (string, error) {
	return s.text, s.err
}

type stubUploader struct {
	authorized bool
	id         string
	err        error
	names      []string
}

func (s *stubUploader) Authorized() bool { return s.authorized }

func (s *stubUploader) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	s.names = append(s.names, name)
	return s.id, s.err
}

type fixture struct {
	ws    *Workspace
	store *memStore
	lib   *media.Library
	clock time.Time
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	lib, err := media.NewLibrary(filepath.Join(t.TempDir(), "audio"), log.New(io.Discard))
	require.NoError(t, err)

	f := &fixture{store: newMemStore(), lib: lib, clock: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	cfg.Store = f.store
	cfg.Library = lib
	cfg.Logger = log.New(io.Discard)
	cfg.Now = func() time.Time { return f.clock }
	f.ws = NewWorkspace(cfg)
	return f
}

func TestBeginPersistsVisit(t *testing.T) {
	f := newFixture(t, Config{})

	v, err := f.ws.Begin()
	require.NoError(t, err)

	stored, err := f.store.Get(v.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Prompts, len(models.DefaultPrompts))
}

func TestMutatePersistsAndTouches(t *testing.T) {
	f := newFixture(t, Config{})
	v, err := f.ws.Begin()
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Minute)
	require.NoError(t, f.ws.Mutate(func(v *models.Visit) error {
		v.CustomerName = "Acme"
		v.ToggleTag(models.TagAtRisk)
		return nil
	}))

	stored, err := f.store.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.CustomerName)
	assert.True(t, stored.UpdatedAt.Equal(f.clock))
	assert.Equal(t, "Acme", f.ws.Active().CustomerName)
}

func TestMutateFailureLeavesActiveUnchanged(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.ws.Begin()
	require.NoError(t, err)

	assert.Error(t, f.ws.Mutate(func(v *models.Visit) error {
		v.CustomerName = "half-done"
		return errors.New("rejected")
	}))
	assert.Empty(t, f.ws.Active().CustomerName)

	f.store.saveErr = errors.New("disk full")
	assert.Error(t, f.ws.Mutate(func(v *models.Visit) error {
		v.CustomerName = "unsaved"
		return nil
	}))
	assert.Empty(t, f.ws.Active().CustomerName)
}

func TestMutateWithoutActiveVisit(t *testing.T) {
	f := newFixture(t, Config{})
	assert.Error(t, f.ws.Mutate(func(*models.Visit) error { return nil }))
}

func TestPromptBindingWritesThrough(t *testing.T) {
	f := newFixture(t, Config{})
	v, err := f.ws.Begin()
	require.NoError(t, err)

	b := f.ws.PromptBinding(2)
	require.NoError(t, b.Update(func(p *models.PromptAnswer) { p.TypedText = "long lead times" }))

	assert.Equal(t, "long lead times", b.Current().TypedText)
	stored, err := f.store.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "long lead times", stored.Prompts[2].TypedText)

	assert.ErrorIs(t, f.ws.PromptBinding(99).Update(func(*models.PromptAnswer) {}), models.ErrNotFound)
}

func TestIntroBindingFillsCustomerSummary(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.ws.Begin()
	require.NoError(t, err)

	b := f.ws.IntroBinding()
	require.NoError(t, b.Update(func(p *models.PromptAnswer) { p.Transcript = "Acme runs three sites." }))
	assert.Equal(t, "Acme runs three sites.", f.ws.Active().CustomerSummary)

	require.NoError(t, f.ws.Mutate(func(v *models.Visit) error {
		v.CustomerSummary = "Edited by hand."
		return nil
	}))
	require.NoError(t, b.Update(func(p *models.PromptAnswer) { p.TypedText = "note" }))
	assert.Equal(t, "Edited by hand.", f.ws.Active().CustomerSummary)

	require.NoError(t, b.Update(func(p *models.PromptAnswer) { p.Transcript = "" }))
	assert.Equal(t, "Edited by hand.", f.ws.Active().CustomerSummary)
}

func TestBindingOutlivesActiveVisit(t *testing.T) {
	f := newFixture(t, Config{})
	first, err := f.ws.Begin()
	require.NoError(t, err)
	b := f.ws.PromptBinding(0)

	_, err = f.ws.Begin()
	require.NoError(t, err)

	ref, err := f.lib.Store(media.Blob{Name: "late.wav", Data: []byte("RIFF")})
	require.NoError(t, err)
	require.NoError(t, b.Update(func(p *models.PromptAnswer) {
		p.Audio = &ref
		p.Locator = f.lib.Locate(ref)
		p.Transcript = "late write"
	}))

	stored, err := f.store.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "late write", stored.Prompts[0].Transcript)
	assert.Equal(t, "late write", b.Current().Transcript)
	assert.Zero(t, f.lib.Outstanding())
}

func TestOpenReissuesLocators(t *testing.T) {
	f := newFixture(t, Config{})
	v, err := f.ws.Begin()
	require.NoError(t, err)

	keep, err := f.lib.Store(media.Blob{Name: "keep.wav", Data: []byte("RIFF")})
	require.NoError(t, err)
	gone, err := f.lib.Store(media.Blob{Name: "gone.wav", Data: []byte("RIFF")})
	require.NoError(t, err)
	require.NoError(t, f.ws.Mutate(func(v *models.Visit) error {
		v.Prompts[0].Audio = &keep
		v.Prompts[1].Audio = &gone
		return nil
	}))
	require.NoError(t, os.Remove(gone.Path))

	f.ws.Close()
	assert.Nil(t, f.ws.Active())

	opened, err := f.ws.Open(v.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, opened.Prompts[0].Locator)
	path, ok := f.lib.Resolve(opened.Prompts[0].Locator)
	assert.True(t, ok)
	assert.Equal(t, keep.Path, path)

	assert.Nil(t, opened.Prompts[1].Audio)
	assert.Empty(t, opened.Prompts[1].Locator)
	assert.Equal(t, 1, f.lib.Outstanding())

	_, err = f.ws.Begin()
	require.NoError(t, err)
	assert.Zero(t, f.lib.Outstanding())
}

func TestDeleteRemovesRecordings(t *testing.T) {
	f := newFixture(t, Config{})
	v, err := f.ws.Begin()
	require.NoError(t, err)

	ref, err := f.lib.Store(media.Blob{Name: "a.wav", Data: []byte("RIFF")})
	require.NoError(t, err)
	require.NoError(t, f.ws.PromptBinding(0).Update(func(p *models.PromptAnswer) {
		p.Audio = &ref
		p.Locator = f.lib.Locate(ref)
	}))

	require.NoError(t, f.ws.Delete(v.ID))

	assert.Nil(t, f.ws.Active())
	_, err = os.Stat(ref.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Zero(t, f.lib.Outstanding())
	assert.ErrorIs(t, f.ws.Delete(v.ID), models.ErrNotFound)
}

func TestGenerateSummaryStoresText(t *testing.T) {
	f := newFixture(t, Config{Composer: summary.Composer{Generator: stubGenerator{text: "# Recap"}}})
	v, err := f.ws.Begin()
	require.NoError(t, err)

	text, err := f.ws.GenerateSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# Recap", text)

	stored, err := f.store.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Recap", stored.GeneratedSummary)
}

func TestGenerateSummaryFailureLeavesVisitUnmodified(t *testing.T) {
	f := newFixture(t, Config{Composer: summary.Composer{Generator: stubGenerator{err: errors.New("quota")}}})
	_, err := f.ws.Begin()
	require.NoError(t, err)
	require.NoError(t, f.ws.Mutate(func(v *models.Visit) error {
		v.GeneratedSummary = "previous"
		return nil
	}))
	before := f.ws.Active()
	saves := f.store.saveCount()

	_, err = f.ws.GenerateSummary(context.Background())
	assert.EqualError(t, err, "quota")

	assert.Equal(t, before, f.ws.Active())
	assert.Equal(t, saves, f.store.saveCount())
}

func TestGenerateSummaryWithoutProvider(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.ws.Begin()
	require.NoError(t, err)

	assert.False(t, f.ws.GenerationConfigured())
	_, err = f.ws.GenerateSummary(context.Background())
	assert.ErrorIs(t, err, models.ErrGenerationUnavailable)
}

func TestExportAndUpload(t *testing.T) {
	up := &stubUploader{authorized: true, id: "drive-1"}
	f := newFixture(t, Config{Uploader: up})
	v, err := f.ws.Begin()
	require.NoError(t, err)
	require.NoError(t, f.ws.Mutate(func(v *models.Visit) error {
		v.CustomerName = "Acme"
		v.GeneratedSummary = "Summary body"
		return nil
	}))

	id, err := f.ws.ExportAndUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "drive-1", id)
	assert.Equal(t, []string{"onsite-recap-Acme-2025-05-01.pdf"}, up.names)

	stored, err := f.store.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "drive-1", stored.DriveFileID)
}

func TestExportAndUploadFailureKeepsFileIDEmpty(t *testing.T) {
	up := &stubUploader{authorized: true, err: errors.New("503")}
	f := newFixture(t, Config{Uploader: up})
	_, err := f.ws.Begin()
	require.NoError(t, err)
	require.NoError(t, f.ws.Mutate(func(v *models.Visit) error {
		v.GeneratedSummary = "Summary body"
		return nil
	}))

	_, err = f.ws.ExportAndUpload(context.Background())
	assert.ErrorIs(t, err, models.ErrRemoteUpload)
	assert.Empty(t, f.ws.Active().DriveFileID)
}

func TestExportAndUploadNeedsAuthorization(t *testing.T) {
	up := &stubUploader{}
	f := newFixture(t, Config{Uploader: up})
	_, err := f.ws.Begin()
	require.NoError(t, err)

	_, err = f.ws.ExportAndUpload(context.Background())
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
	assert.Empty(t, up.names)

	f2 := newFixture(t, Config{})
	_, err = f2.ws.Begin()
	require.NoError(t, err)
	_, err = f2.ws.ExportAndUpload(context.Background())
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
}

func TestRepositorySearchAndOrder(t *testing.T) {
	f := newFixture(t, Config{})

	add := func(name, account, text string) {
		_, err := f.ws.Begin()
		require.NoError(t, err)
		f.clock = f.clock.Add(time.Hour)
		require.NoError(t, f.ws.Mutate(func(v *models.Visit) error {
			v.CustomerName = name
			v.AccountID = account
			v.GeneratedSummary = text
			return nil
		}))
	}
	add("Acme", "A-1", "Pick-to-light pilot")
	add("Globex", "G-7", "Renewal risk")
	add("Draft Co", "D-0", "")
	add("Initech", "I-3", "Talked about ACME integration")

	all, err := f.ws.Repository("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Initech", all[0].CustomerName)
	assert.Equal(t, "Globex", all[1].CustomerName)
	assert.Equal(t, "Acme", all[2].CustomerName)

	hits, err := f.ws.Repository("acme")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Initech", hits[0].CustomerName)

	hits, err = f.ws.Repository("g-7")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Globex", hits[0].CustomerName)

	drafts, err := f.ws.Drafts()
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Draft Co", drafts[0].CustomerName)
}

// recordingRig wires a real controller to the workspace like the TUI does.
func recordingRig(t *testing.T, f *fixture, feed capture.LiveFeed) (*recording.Controller, *capture.ManualClock) {
	t.Helper()
	clock := &capture.ManualClock{}
	sess := capture.NewSession(capture.Options{
		Device:  &capture.ScriptedDevice{PCM: "pcm"},
		Library: f.lib,
		Feed:    feed,
		Clock:   clock,
		Logger:  log.New(io.Discard),
	})
	c := recording.NewController(recording.Config{
		Name:    "question",
		Session: sess,
		Library: f.lib,
		Logger:  log.New(io.Discard),
	}, f.ws.PromptBinding(0))
	return c, clock
}

func TestRecordingPersistsThroughBinding(t *testing.T) {
	f := newFixture(t, Config{})
	v, err := f.ws.Begin()
	require.NoError(t, err)

	feed := &capture.ScriptedFeed{Results: []string{"we toured", "we toured the floor"}}
	c, _ := recordingRig(t, f, feed)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	c.Wait()

	assert.Equal(t, recording.Ready, c.State())

	stored, err := f.store.Get(v.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Prompts[0].Audio)
	assert.Equal(t, "we toured the floor", stored.Prompts[0].Transcript)
	assert.Empty(t, stored.Prompts[0].Locator)
	assert.NotEmpty(t, f.ws.Active().Prompts[0].Locator)

	c.Rebind(f.ws.PromptBinding(1))
	assert.Equal(t, recording.Idle, c.State())
	require.NoError(t, c.Clear())
	assert.NotNil(t, f.ws.Active().Prompts[0].Audio)
}

func TestFailedSaveKeepsRecordingPlayable(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.ws.Begin()
	require.NoError(t, err)

	c, _ := recordingRig(t, f, &capture.ScriptedFeed{Results: []string{"first take"}})
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	c.Wait()

	take := f.ws.Active().Prompts[0]
	require.NotNil(t, take.Audio)
	require.NotEmpty(t, take.Locator)

	f.store.saveErr = errors.New("disk full")

	assert.Error(t, c.Clear())
	kept := f.ws.Active().Prompts[0]
	require.NotNil(t, kept.Audio)
	assert.Equal(t, take.Locator, kept.Locator)
	_, err = os.Stat(kept.Audio.Path)
	assert.NoError(t, err)
	path, ok := f.lib.Resolve(kept.Locator)
	assert.True(t, ok)
	assert.Equal(t, kept.Audio.Path, path)

	// A new take that cannot be saved is dropped and the old one stays.
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	c.Wait()

	kept = f.ws.Active().Prompts[0]
	require.NotNil(t, kept.Audio)
	assert.Equal(t, take.Audio.Path, kept.Audio.Path)
	_, err = os.Stat(kept.Audio.Path)
	assert.NoError(t, err)
	_, ok = f.lib.Resolve(kept.Locator)
	assert.True(t, ok)
	assert.Equal(t, 1, f.lib.Outstanding())

	files, err := os.ReadDir(f.lib.Dir())
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestStoreIntegrationWithBadger(t *testing.T) {
	backend, err := db.OpenBadger(filepath.Join(t.TempDir(), "visits"))
	require.NoError(t, err)
	defer backend.Close()

	lib, err := media.NewLibrary(filepath.Join(t.TempDir(), "audio"), log.New(io.Discard))
	require.NoError(t, err)

	ws := NewWorkspace(Config{
		Store:   db.NewVisitStore(backend, log.New(io.Discard)),
		Library: lib,
		Logger:  log.New(io.Discard),
	})

	v, err := ws.Begin()
	require.NoError(t, err)
	require.NoError(t, ws.PromptBinding(3).Update(func(p *models.PromptAnswer) { p.TypedText = "needs EDI" }))

	ws.Close()
	opened, err := ws.Open(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "needs EDI", opened.Prompts[3].TypedText)
}
