// ABOUTME: Builds the running application from config: logger, storage, media, AI providers and Drive
// ABOUTME: Every subcommand opens an App and closes it when done
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"

	"github.com/harperreed/onsite/ai"
	"github.com/harperreed/onsite/capture"
	"github.com/harperreed/onsite/config"
	"github.com/harperreed/onsite/db"
	"github.com/harperreed/onsite/drive"
	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/recording"
	"github.com/harperreed/onsite/summary"
	"github.com/harperreed/onsite/tui"
	"github.com/harperreed/onsite/visit"
)

type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Store     *db.VisitStore
	Library   *media.Library
	Workspace *visit.Workspace
	Uploader  *drive.Uploader

	logFile io.Closer
}

// NewLogger writes to the configured log file so the TUI owns the terminal.
// With no log file it discards everything.
func NewLogger(cfg *config.Config) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	if cfg.LogFile == "" {
		return log.New(io.Discard), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          config.AppName,
		Level:           level,
	})
	return logger, f, nil
}

// OpenApp opens storage and the media library and wires the workspace.
func OpenApp(cfg *config.Config) (*App, error) {
	logger, logFile, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return openApp(cfg, logger, logFile)
}

func openApp(cfg *config.Config, logger *log.Logger, logFile io.Closer) (*App, error) {
	backend, err := db.Open(cfg.StorageBackend, cfg.StoragePath)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}
	store := db.NewVisitStore(backend, logger)

	library, err := media.NewLibrary(cfg.MediaDir, logger)
	if err != nil {
		_ = store.Close()
		_ = logFile.Close()
		return nil, fmt.Errorf("failed to open media library: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Library: library,
		logFile: logFile,
	}

	wsCfg := visit.Config{
		Store:    store,
		Library:  library,
		Composer: summary.Composer{Generator: app.Generator()},
		Logger:   logger,
	}
	if cfg.GoogleClientID != "" {
		oauth := drive.NewOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthCallbackAddr)
		app.Uploader = drive.NewUploader(oauth, cfg.DriveFolderID, drive.TokenPath(), logger)
		wsCfg.Uploader = app.Uploader
	}
	app.Workspace = visit.NewWorkspace(wsCfg)

	logger.Debug("app opened", "backend", cfg.StorageBackend, "path", cfg.StoragePath, "provider", cfg.Provider)
	return app, nil
}

func (a *App) Close() error {
	a.Workspace.Close()
	err := a.Store.Close()
	if cerr := a.logFile.Close(); err == nil {
		err = cerr
	}
	return err
}

// Generator returns the configured summary provider, or nil when none is usable.
func (a *App) Generator() summary.Generator {
	cfg := a.Config
	key := cfg.SummaryKey()
	if key == "" {
		return nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		g := ai.NewGemini(key, a.Logger)
		if cfg.SummaryModel != "" {
			g.Model = cfg.SummaryModel
		}
		return g
	case config.ProviderAnthropic:
		c := ai.NewAnthropic(key, a.Logger)
		if cfg.SummaryModel != "" {
			c.Model = cfg.SummaryModel
		}
		return c
	case config.ProviderOpenAI:
		o := ai.NewOpenAI(key, a.Logger)
		if cfg.SummaryModel != "" {
			o.SummaryModel = cfg.SummaryModel
		}
		return o
	}
	return nil
}

// Transcriber returns the post-capture transcription service, or nil.
func (a *App) Transcriber() recording.Transcriber {
	if !strings.EqualFold(a.Config.TranscribeWith, config.ProviderOpenAI) || a.Config.OpenAIKey == "" {
		return nil
	}
	return ai.NewOpenAI(a.Config.OpenAIKey, a.Logger)
}

// Recorders builds the intro and question controllers. They share one
// microphone, so only one of them can record at a time.
func (a *App) Recorders() (intro, question *recording.Controller) {
	cfg := a.Config
	device := capture.Exclusive(&capture.FFmpegDevice{
		Binary:      cfg.FFmpegBinary,
		InputFormat: cfg.FFmpegInputFormat,
		Input:       cfg.FFmpegInput,
		TempDir:     os.TempDir(),
		Live:        cfg.AssemblyAIKey != "",
	})
	transcriber := a.Transcriber()
	player := recording.FFplayPlayer{}

	build := func(name string) *recording.Controller {
		opts := capture.Options{
			Device:  device,
			Library: a.Library,
			Cutoff:  cfg.CutoffSeconds,
			Logger:  a.Logger.With("surface", name),
		}
		if feed := capture.NewAssemblyAIFeed(cfg.AssemblyAIKey, a.Logger); feed != nil {
			opts.Feed = feed
		}
		return recording.NewController(recording.Config{
			Name:        name,
			Session:     capture.NewSession(opts),
			Library:     a.Library,
			Transcriber: transcriber,
			Player:      player,
			Logger:      a.Logger,
		}, nil)
	}
	return build("intro"), build("question")
}

// RunTUI starts the interactive interview.
func (a *App) RunTUI() error {
	intro, question := a.Recorders()
	return tui.Run(tui.Deps{
		Workspace: a.Workspace,
		Intro:     intro,
		Question:  question,
		Logger:    a.Logger,
		ExportDir: ExportDir(),
	})
}

// ExportDir is where PDFs are saved: the Downloads folder, or the working directory.
func ExportDir() string {
	if dir := xdg.UserDirs.Download; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
