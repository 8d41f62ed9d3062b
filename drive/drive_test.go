// ABOUTME: Tests for the Drive OAuth flow and uploader
// ABOUTME: Token persistence, callback handling and upload requests against httptest servers
package drive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/harperreed/onsite/models"
)

func TestOAuthConfigUsesDriveFileScope(t *testing.T) {
	cfg := NewOAuthConfig("id", "secret", "")

	assert.Equal(t, []string{Scope}, cfg.Scopes)
	assert.Equal(t, "http://localhost:8080/oauth/callback", cfg.RedirectURL)
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Now().Add(time.Hour).Round(time.Second)}

	require.NoError(t, SaveToken(path, tok))
	loaded, err := LoadToken(path)
	require.NoError(t, err)

	assert.Equal(t, "a", loaded.AccessToken)
	assert.Equal(t, "r", loaded.RefreshToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestCallbackAddr(t *testing.T) {
	addr, err := callbackAddr("http://localhost:9999/oauth/callback")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9999", addr)

	_, err = callbackAddr("https://example.com/cb")
	assert.Error(t, err)
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/file/d/abc/view", FileURL("abc"))
	assert.Equal(t, "https://drive.google.com/drive/folders/f1", FolderURL("f1"))
}

func TestAuthorized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	cfg := NewOAuthConfig("id", "secret", "")
	u := NewUploader(cfg, "", path, log.New(io.Discard))

	assert.False(t, u.Authorized())

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(-time.Hour)}))
	assert.False(t, u.Authorized())

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}))
	assert.True(t, u.Authorized())

	assert.False(t, NewUploader(NewOAuthConfig("", "", ""), "", path, nil).Authorized())
}

func TestUploadWithoutTokenIsNotAuthorized(t *testing.T) {
	u := NewUploader(NewOAuthConfig("id", "secret", ""), "", filepath.Join(t.TempDir(), "missing.json"), log.New(io.Discard))

	_, err := u.Upload(context.Background(), "a.pdf", "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
}

func uploaderAgainst(t *testing.T, srv *httptest.Server, folder string) *Uploader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "live-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}))

	u := NewUploader(NewOAuthConfig("id", "secret", ""), folder, path, log.New(io.Discard))
	u.endpoint = srv.URL + "/drive/v3/"
	return u
}

func TestUploadCreatesFileInFolder(t *testing.T) {
	var mu sync.Mutex
	var gotAuth, gotBody, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotBody = string(body)
		gotPath = r.URL.Path
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-123"}`))
	}))
	defer srv.Close()

	u := uploaderAgainst(t, srv, "folder-9")

	id, err := u.Upload(context.Background(), "onsite-recap-acme.pdf", "application/pdf", []byte("%PDF-1.3 body"))
	require.NoError(t, err)
	assert.Equal(t, "file-123", id)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer live-token", gotAuth)
	assert.True(t, strings.HasSuffix(gotPath, "/files"), gotPath)
	assert.Contains(t, gotBody, "onsite-recap-acme.pdf")
	assert.Contains(t, gotBody, "folder-9")
	assert.Contains(t, gotBody, "%PDF-1.3 body")
}

func TestUploadRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"insufficient permissions"}}`))
	}))
	defer srv.Close()

	u := uploaderAgainst(t, srv, "")

	_, err := u.Upload(context.Background(), "a.pdf", "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, models.ErrRemoteUpload)
	assert.Contains(t, err.Error(), "insufficient permissions")
}
