// ABOUTME: Google Drive authorization and settings subcommands
// ABOUTME: `onsite auth` runs the browser consent flow, `onsite config` prints resolved settings
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/harperreed/onsite/config"
	"github.com/harperreed/onsite/drive"
)

// AuthCommand connects Google Drive and saves the token for later uploads.
func AuthCommand(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("auth", flag.ContinueOnError)
	fs.SetOutput(out)
	timeout := fs.Duration("timeout", 5*time.Minute, "How long to wait for the browser callback")
	status := fs.Bool("status", false, "Only report whether Drive is connected")
	if err := fs.Parse(args); err != nil {
		return err
	}

	oauth := drive.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthCallbackAddr)
	uploader := drive.NewUploader(oauth, cfg.DriveFolderID, drive.TokenPath(), nil)

	if *status {
		if uploader.Authorized() {
			_, _ = fmt.Fprintln(out, "Google Drive: connected")
		} else {
			_, _ = fmt.Fprintln(out, "Google Drive: not connected")
		}
		if cfg.DriveFolderID != "" {
			_, _ = fmt.Fprintf(out, "Folder:       %s\n", drive.FolderURL(cfg.DriveFolderID))
		}
		return nil
	}

	if err := drive.Authorize(context.Background(), oauth, drive.TokenPath(), out, *timeout); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Google Drive connected. Token saved to %s\n", drive.TokenPath())
	return nil
}

// ConfigCommand prints where settings and data live and which services are set up.
func ConfigCommand(cfg *config.Config, out io.Writer) error {
	set := func(s string) string {
		if s == "" {
			return "not set"
		}
		return "set"
	}

	_, _ = fmt.Fprintln(out, "Onsite Settings")
	_, _ = fmt.Fprintln(out, "───────────────")
	_, _ = fmt.Fprintf(out, "Config file:   %s\n", config.FilePath())
	_, _ = fmt.Fprintf(out, "Storage:       %s (%s)\n", cfg.StorageBackend, cfg.StoragePath)
	_, _ = fmt.Fprintf(out, "Recordings:    %s\n", cfg.MediaDir)
	_, _ = fmt.Fprintf(out, "Log file:      %s\n", cfg.LogFile)
	_, _ = fmt.Fprintf(out, "Summary:       %s (key %s)\n", cfg.Provider, set(cfg.SummaryKey()))
	_, _ = fmt.Fprintf(out, "Transcription: %s (key %s)\n", cfg.TranscribeWith, set(cfg.OpenAIKey))
	_, _ = fmt.Fprintf(out, "Live captions: key %s\n", set(cfg.AssemblyAIKey))
	_, _ = fmt.Fprintf(out, "Microphone:    %s %s\n", cfg.FFmpegInputFormat, cfg.FFmpegInput)
	_, _ = fmt.Fprintf(out, "Auto-stop:     %ds\n", cfg.CutoffSeconds)
	_, _ = fmt.Fprintf(out, "Google Drive:  client %s\n", set(cfg.GoogleClientID))
	return nil
}
