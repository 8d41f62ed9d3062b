// ABOUTME: On-disk audio blob library with revocable playback locators
// ABOUTME: Each stored blob gets a ULID file name; locators map 1:1 to live references
package media

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/onsite/models"
)

const locatorScheme = "blob:"

// Blob is a finalized, immutable chunk of captured or uploaded audio.
type Blob struct {
	Name     string
	MIMEType string
	Data     []byte
}

var mimeExtensionFallback = map[string]string{
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/webm":  ".webm",
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/ogg":   ".ogg",
}

// Library owns every audio file referenced by a visit and the playback
// locators issued for them.
type Library struct {
	dir    string
	logger *log.Logger

	mu       sync.Mutex
	locators map[string]string
}

// NewLibrary creates the audio directory if needed.
func NewLibrary(dir string, logger *log.Logger) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Library{
		dir:      dir,
		logger:   logger,
		locators: make(map[string]string),
	}, nil
}

func (l *Library) Dir() string {
	return l.dir
}

// Store writes the blob to disk and returns a reference to it.
func (l *Library) Store(b Blob) (models.AudioRef, error) {
	id := ulid.Make().String()
	path := filepath.Join(l.dir, id+extensionFor(b))

	if err := os.WriteFile(path, b.Data, 0o600); err != nil {
		return models.AudioRef{}, fmt.Errorf("write audio blob: %w", err)
	}

	name := b.Name
	if name == "" {
		name = filepath.Base(path)
	}

	return models.AudioRef{
		ID:       id,
		Name:     name,
		MIMEType: b.MIMEType,
		Size:     int64(len(b.Data)),
		Path:     path,
	}, nil
}

// Open reads a stored blob back into memory.
func (l *Library) Open(ref models.AudioRef) (Blob, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return Blob{}, fmt.Errorf("read audio blob %s: %w", ref.ID, err)
	}
	return Blob{Name: ref.Name, MIMEType: ref.MIMEType, Data: data}, nil
}

// Release deletes the blob from disk. Releasing a missing blob is not an error.
func (l *Library) Release(ref models.AudioRef) error {
	if ref.Path == "" {
		return nil
	}
	if err := os.Remove(ref.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove audio blob %s: %w", ref.ID, err)
	}
	return nil
}

// Locate issues a playback locator for a stored blob.
func (l *Library) Locate(ref models.AudioRef) string {
	locator := locatorScheme + ulid.Make().String()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.locators[locator] = ref.Path
	return locator
}

// Resolve turns a locator back into a playable file path.
func (l *Library) Resolve(locator string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	path, ok := l.locators[locator]
	return path, ok
}

// Revoke invalidates a locator. Unknown locators are ignored.
func (l *Library) Revoke(locator string) {
	if locator == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.locators[locator]; !ok {
		l.logger.Debug("revoking unknown locator", "locator", locator)
	}
	delete(l.locators, locator)
}

// Outstanding returns the number of live locators.
func (l *Library) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locators)
}

func extensionFor(b Blob) string {
	if ext := strings.ToLower(filepath.Ext(b.Name)); ext != "" {
		return ext
	}
	if ext, ok := mimeExtensionFallback[strings.ToLower(b.MIMEType)]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(b.MIMEType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
