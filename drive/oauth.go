// ABOUTME: Google OAuth for Drive uploads: config, token storage at XDG paths and the browser sign-in flow
// ABOUTME: Only the drive.file scope is requested, so onsite sees just the files it created
package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// Scope limits access to files this app creates or opens.
	Scope = "https://www.googleapis.com/auth/drive.file"

	DefaultCallbackAddr = "localhost:8080"
	callbackPath        = "/oauth/callback"
)

// NewOAuthConfig creates the OAuth2 config for Drive uploads.
func NewOAuthConfig(clientID, clientSecret, callbackAddr string) *oauth2.Config {
	if callbackAddr == "" {
		callbackAddr = DefaultCallbackAddr
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "http://" + callbackAddr + callbackPath,
		Scopes:       []string{Scope},
		Endpoint:     google.Endpoint,
	}
}

// TokenPath returns the XDG location of the saved Google token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "onsite", "google-credentials.json")
}

// SaveToken writes a token with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// Authorize runs the browser consent flow and saves the resulting token.
// It blocks until the callback arrives, ctx is done, or timeout passes.
func Authorize(ctx context.Context, cfg *oauth2.Config, tokenPath string, out io.Writer, timeout time.Duration) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return errors.New("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}

	addr, err := callbackAddr(cfg.RedirectURL)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for OAuth callback on %s: %w", addr, err)
	}

	state, err := randomState()
	if err != nil {
		return err
	}

	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := r.URL.Query().Get("error"); e != "" {
			errCh <- fmt.Errorf("authorization denied: %s", e)
			_, _ = fmt.Fprintln(w, "Authorization was not granted. You can close this window.")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			errCh <- errors.New("no authorization code received")
			return
		}

		token, err := cfg.Exchange(r.Context(), code)
		if err != nil {
			errCh <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		tokenCh <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Fprintln(out, "Opening browser for Google sign-in...")
	fmt.Fprintf(out, "\nIf the browser doesn't open, visit this URL:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case token := <-tokenCh:
		if err := SaveToken(tokenPath, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		fmt.Fprintln(out, "✓ Signed in to Google Drive")
		fmt.Fprintf(out, "✓ Token saved to %s\n", tokenPath)
		return nil
	case err := <-errCh:
		return fmt.Errorf("OAuth flow failed: %w", err)
	case <-timer.C:
		return errors.New("OAuth flow timed out waiting for the browser")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func callbackAddr(redirect string) (string, error) {
	const prefix = "http://"
	if len(redirect) <= len(prefix) || redirect[:len(prefix)] != prefix {
		return "", fmt.Errorf("redirect URL must be a local http address: %q", redirect)
	}
	rest := redirect[len(prefix):]
	for i, r := range rest {
		if r == '/' {
			return rest[:i], nil
		}
	}
	return rest, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
