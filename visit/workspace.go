// ABOUTME: Workspace owns the active visit and persists it on every mutation
// ABOUTME: Also drives summary generation and export-and-upload against injected services
package visit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/onsite/export"
	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/summary"
)

// Store is local persistence for visits.
type Store interface {
	Save(v *models.Visit) error
	LoadAll() ([]models.Visit, error)
	Get(id uuid.UUID) (*models.Visit, error)
	Delete(id uuid.UUID) error
}

// Uploader is the remote document store.
type Uploader interface {
	Authorized() bool
	Upload(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

type Config struct {
	Store    Store
	Library  *media.Library
	Composer summary.Composer
	Uploader Uploader
	Logger   *log.Logger
	Now      func() time.Time
}

type Workspace struct {
	store    Store
	library  *media.Library
	composer summary.Composer
	uploader Uploader
	logger   *log.Logger
	now      func() time.Time

	mu     sync.Mutex
	active *models.Visit
}

func NewWorkspace(cfg Config) *Workspace {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Workspace{
		store:    cfg.Store,
		library:  cfg.Library,
		composer: cfg.Composer,
		uploader: cfg.Uploader,
		logger:   logger,
		now:      now,
	}
}

// Active returns a snapshot of the active visit, or nil.
func (w *Workspace) Active() *models.Visit {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil
	}
	return w.active.Clone()
}

// Begin starts a fresh visit, saves it and makes it active.
func (w *Workspace) Begin() (*models.Visit, error) {
	v := models.NewVisit(w.now())
	if err := w.store.Save(v); err != nil {
		return nil, fmt.Errorf("failed to save new visit: %w", err)
	}

	w.mu.Lock()
	w.replaceActive(v)
	w.mu.Unlock()

	w.logger.Info("visit started", "visit", v.ID)
	return v.Clone(), nil
}

// Open makes a saved visit active and issues playback locators for its audio.
func (w *Workspace) Open(id uuid.UUID) (*models.Visit, error) {
	v, err := w.store.Get(id)
	if err != nil {
		return nil, err
	}

	missing := 0
	eachAnswer(v, func(p *models.PromptAnswer) {
		if p.Audio == nil {
			return
		}
		if _, err := os.Stat(p.Audio.Path); err != nil {
			w.logger.Warn("recording missing on disk, dropping reference", "visit", v.ID, "audio", p.Audio.ID, "err", err)
			p.Audio = nil
			missing++
			return
		}
		p.Locator = w.library.Locate(*p.Audio)
	})

	if missing > 0 {
		v.Touch(w.now())
		if err := w.store.Save(v); err != nil {
			revokeAll(w.library, v)
			return nil, err
		}
	}

	w.mu.Lock()
	w.replaceActive(v)
	w.mu.Unlock()
	return v.Clone(), nil
}

// Close revokes the active visit's locators and clears it.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.replaceActive(nil)
}

// replaceActive must be called with w.mu held.
func (w *Workspace) replaceActive(v *models.Visit) {
	if w.active != nil {
		revokeAll(w.library, w.active)
	}
	w.active = v
}

// Mutate applies fn to the active visit and persists it.
func (w *Workspace) Mutate(fn func(v *models.Visit) error) error {
	w.mu.Lock()
	if w.active == nil {
		w.mu.Unlock()
		return errors.New("no active visit")
	}
	id := w.active.ID
	w.mu.Unlock()

	return w.apply(id, fn)
}

// apply mutates a copy of the visit and swaps it in only once it is saved.
// Visits that are no longer active are updated straight in the store.
func (w *Workspace) apply(id uuid.UUID, fn func(v *models.Visit) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active != nil && w.active.ID == id {
		next := w.active.Clone()
		if err := fn(next); err != nil {
			return err
		}
		next.Touch(w.now())
		if err := w.store.Save(next); err != nil {
			return fmt.Errorf("failed to save visit: %w", err)
		}
		w.active = next
		return nil
	}

	v, err := w.store.Get(id)
	if err != nil {
		return err
	}
	if err := fn(v); err != nil {
		return err
	}
	revokeAll(w.library, v)
	v.Touch(w.now())
	if err := w.store.Save(v); err != nil {
		return fmt.Errorf("failed to save visit: %w", err)
	}
	return nil
}

// Delete removes a saved visit and its recordings.
func (w *Workspace) Delete(id uuid.UUID) error {
	v, err := w.store.Get(id)
	if err != nil {
		return err
	}
	if err := w.store.Delete(id); err != nil {
		return err
	}

	w.mu.Lock()
	if w.active != nil && w.active.ID == id {
		w.replaceActive(nil)
	}
	w.mu.Unlock()

	eachAnswer(v, func(p *models.PromptAnswer) {
		if p.Audio != nil {
			if err := w.library.Release(*p.Audio); err != nil {
				w.logger.Warn("failed to remove recording", "audio", p.Audio.ID, "err", err)
			}
		}
	})
	return nil
}

// GenerationConfigured reports whether a summary provider is wired.
func (w *Workspace) GenerationConfigured() bool {
	return w.composer.Configured()
}

// GenerateSummary composes a summary for the active visit and stores it.
// On failure the visit is left exactly as it was.
func (w *Workspace) GenerateSummary(ctx context.Context) (string, error) {
	v := w.Active()
	if v == nil {
		return "", errors.New("no active visit")
	}

	text, err := w.composer.Compose(ctx, v)
	if err != nil {
		return "", err
	}

	if err := w.apply(v.ID, func(cur *models.Visit) error {
		cur.GeneratedSummary = text
		return nil
	}); err != nil {
		return "", err
	}

	w.logger.Info("summary generated", "visit", v.ID, "chars", len(text))
	return text, nil
}

// UploadConfigured reports whether a remote document store is wired and signed in.
func (w *Workspace) UploadConfigured() bool {
	return w.uploader != nil && w.uploader.Authorized()
}

// ExportAndUpload renders the active visit and uploads it. The remote file id
// is recorded only after the upload succeeds.
func (w *Workspace) ExportAndUpload(ctx context.Context) (string, error) {
	v := w.Active()
	if v == nil {
		return "", errors.New("no active visit")
	}
	if w.uploader == nil || !w.uploader.Authorized() {
		return "", models.ErrNotAuthorized
	}

	data, err := export.Bytes(v)
	if err != nil {
		return "", err
	}

	id, err := w.uploader.Upload(ctx, export.FileName(v, w.now()), export.MIMEType(), data)
	if err != nil {
		if !errors.Is(err, models.ErrRemoteUpload) && !errors.Is(err, models.ErrNotAuthorized) {
			err = fmt.Errorf("%w: %v", models.ErrRemoteUpload, err)
		}
		return "", err
	}

	if err := w.apply(v.ID, func(cur *models.Visit) error {
		cur.DriveFileID = id
		return nil
	}); err != nil {
		return "", err
	}
	return id, nil
}

func eachAnswer(v *models.Visit, fn func(p *models.PromptAnswer)) {
	fn(&v.Intro)
	for i := range v.Prompts {
		fn(&v.Prompts[i])
	}
}

func revokeAll(lib *media.Library, v *models.Visit) {
	eachAnswer(v, func(p *models.PromptAnswer) {
		if p.Locator != "" {
			lib.Revoke(p.Locator)
			p.Locator = ""
		}
	})
}
