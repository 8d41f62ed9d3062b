// ABOUTME: Drive v3 uploader for exported visit documents
// ABOUTME: Uses the saved token, persists refreshed tokens and files uploads into an optional folder
package drive

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/harperreed/onsite/models"
)

// FileURL is the browser link for an uploaded file.
func FileURL(id string) string {
	return "https://drive.google.com/file/d/" + id + "/view"
}

// FolderURL is the browser link for a Drive folder.
func FolderURL(id string) string {
	return "https://drive.google.com/drive/folders/" + id
}

type Uploader struct {
	config    *oauth2.Config
	folderID  string
	tokenPath string
	logger    *log.Logger

	// endpoint overrides the Drive API base URL when set.
	endpoint string
}

func NewUploader(cfg *oauth2.Config, folderID, tokenPath string, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.Default()
	}
	return &Uploader{config: cfg, folderID: folderID, tokenPath: tokenPath, logger: logger}
}

// FolderID is the folder uploads land in, or empty for the Drive root.
func (u *Uploader) FolderID() string { return u.folderID }

// Authorized reports whether a usable token is on disk.
func (u *Uploader) Authorized() bool {
	if u.config == nil || u.config.ClientID == "" {
		return false
	}
	tok, err := LoadToken(u.tokenPath)
	if err != nil {
		return false
	}
	return tok.Valid() || tok.RefreshToken != ""
}

// Upload creates a file in Drive and returns its ID.
func (u *Uploader) Upload(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	if u.config == nil {
		return "", models.ErrNotAuthorized
	}
	tok, err := LoadToken(u.tokenPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrNotAuthorized, err)
	}

	ts := &savingTokenSource{
		base:   u.config.TokenSource(ctx, tok),
		last:   tok.AccessToken,
		path:   u.tokenPath,
		logger: u.logger,
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if u.endpoint != "" {
		opts = append(opts, option.WithEndpoint(u.endpoint))
	}

	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create Drive service: %v", models.ErrRemoteUpload, err)
	}

	meta := &drivev3.File{Name: name, MimeType: mimeType}
	if u.folderID != "" {
		meta.Parents = []string{u.folderID}
	}

	file, err := svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRemoteUpload, err)
	}

	u.logger.Info("uploaded to drive", "name", name, "id", file.Id, "bytes", len(data))
	return file.Id, nil
}

// savingTokenSource writes refreshed tokens back to disk.
type savingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger *log.Logger

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("failed to persist refreshed google token", "err", err)
		}
	}
	return tok, nil
}
