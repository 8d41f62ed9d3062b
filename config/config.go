// ABOUTME: Application settings: defaults, then config.toml, then .env, then environment
// ABOUTME: Paths resolve under the XDG config, data and state directories

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/harperreed/onsite/capture"
	"github.com/harperreed/onsite/db"
	"github.com/harperreed/onsite/drive"
)

const AppName = "onsite"

// Summary providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

type Config struct {
	Provider       string
	OpenAIKey      string
	GeminiKey      string
	AnthropicKey   string
	AssemblyAIKey  string
	SummaryModel   string
	TranscribeWith string // "openai" or "none"

	StorageBackend string
	StoragePath    string
	MediaDir       string

	FFmpegBinary      string
	FFmpegInputFormat string
	FFmpegInput       string
	CutoffSeconds     int

	GoogleClientID     string
	GoogleClientSecret string
	DriveFolderID      string
	OAuthCallbackAddr  string

	LogFile  string
	LogLevel string
}

type fileConfig struct {
	Provider       string `toml:"provider"`
	SummaryModel   string `toml:"summary_model"`
	TranscribeWith string `toml:"transcribe_with"`
	OpenAIKey      string `toml:"openai_api_key"`
	GeminiKey      string `toml:"gemini_api_key"`
	AnthropicKey   string `toml:"anthropic_api_key"`
	AssemblyAIKey  string `toml:"assemblyai_api_key"`

	Storage struct {
		Backend string `toml:"backend"`
		Path    string `toml:"path"`
	} `toml:"storage"`

	Media struct {
		Dir string `toml:"dir"`
	} `toml:"media"`

	Recording struct {
		FFmpeg        string `toml:"ffmpeg"`
		InputFormat   string `toml:"input_format"`
		Input         string `toml:"input"`
		CutoffSeconds int    `toml:"cutoff_seconds"`
	} `toml:"recording"`

	Drive struct {
		ClientID     string `toml:"client_id"`
		ClientSecret string `toml:"client_secret"`
		FolderID     string `toml:"folder_id"`
		CallbackAddr string `toml:"callback_addr"`
	} `toml:"drive"`

	Log struct {
		File  string `toml:"file"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	dataDir := DataDir()
	format, input := capture.DefaultInput()
	return &Config{
		Provider:          ProviderGemini,
		TranscribeWith:    ProviderOpenAI,
		StorageBackend:    db.KindBadger,
		StoragePath:       db.DefaultPath(dataDir, db.KindBadger),
		MediaDir:          filepath.Join(dataDir, "audio"),
		FFmpegInputFormat: format,
		FFmpegInput:       input,
		CutoffSeconds:     capture.DefaultCutoffSeconds,
		OAuthCallbackAddr: drive.DefaultCallbackAddr,
		LogFile:           filepath.Join(xdg.StateHome, AppName, "onsite.log"),
		LogLevel:          "info",
	}
}

func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// FilePath is where config.toml lives.
func FilePath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// Load layers config.toml, a .env file in the working directory and the
// environment over the defaults. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(FilePath()); err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil //nolint:nilerr // no config file means defaults
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.merge(&fc)
	return nil
}

func (c *Config) merge(fc *fileConfig) {
	setString(&c.Provider, strings.ToLower(fc.Provider))
	setString(&c.SummaryModel, fc.SummaryModel)
	setString(&c.TranscribeWith, strings.ToLower(fc.TranscribeWith))
	setString(&c.OpenAIKey, fc.OpenAIKey)
	setString(&c.GeminiKey, fc.GeminiKey)
	setString(&c.AnthropicKey, fc.AnthropicKey)
	setString(&c.AssemblyAIKey, fc.AssemblyAIKey)

	backend := strings.ToLower(fc.Storage.Backend)
	backendChanged := backend != "" && backend != c.StorageBackend
	setString(&c.StorageBackend, backend)
	if fc.Storage.Path != "" {
		c.StoragePath = expandTilde(fc.Storage.Path)
	} else if backendChanged {
		c.StoragePath = db.DefaultPath(DataDir(), c.StorageBackend)
	}
	if fc.Media.Dir != "" {
		c.MediaDir = expandTilde(fc.Media.Dir)
	}

	setString(&c.FFmpegBinary, fc.Recording.FFmpeg)
	setString(&c.FFmpegInputFormat, fc.Recording.InputFormat)
	setString(&c.FFmpegInput, fc.Recording.Input)
	if fc.Recording.CutoffSeconds > 0 {
		c.CutoffSeconds = fc.Recording.CutoffSeconds
	}

	setString(&c.GoogleClientID, fc.Drive.ClientID)
	setString(&c.GoogleClientSecret, fc.Drive.ClientSecret)
	setString(&c.DriveFolderID, fc.Drive.FolderID)
	setString(&c.OAuthCallbackAddr, fc.Drive.CallbackAddr)

	if fc.Log.File != "" {
		c.LogFile = expandTilde(fc.Log.File)
	}
	setString(&c.LogLevel, fc.Log.Level)
}

func applyEnvOverrides(c *Config) {
	envString(&c.OpenAIKey, "OPENAI_API_KEY", "ONSITE_OPENAI_API_KEY")
	envString(&c.GeminiKey, "GEMINI_API_KEY", "ONSITE_GEMINI_API_KEY")
	envString(&c.AnthropicKey, "ANTHROPIC_API_KEY", "ONSITE_ANTHROPIC_API_KEY")
	envString(&c.AssemblyAIKey, "ASSEMBLYAI_API_KEY", "ONSITE_ASSEMBLYAI_API_KEY")
	envString(&c.GoogleClientID, "GOOGLE_CLIENT_ID", "ONSITE_GOOGLE_CLIENT_ID")
	envString(&c.GoogleClientSecret, "GOOGLE_CLIENT_SECRET", "ONSITE_GOOGLE_CLIENT_SECRET")
	envString(&c.DriveFolderID, "ONSITE_DRIVE_FOLDER_ID")
	envString(&c.SummaryModel, "ONSITE_SUMMARY_MODEL")
	envString(&c.LogLevel, "ONSITE_LOG_LEVEL")

	if v := os.Getenv("ONSITE_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("ONSITE_STORAGE_BACKEND"); v != "" {
		c.StorageBackend = strings.ToLower(v)
		if os.Getenv("ONSITE_STORAGE_PATH") == "" {
			c.StoragePath = db.DefaultPath(DataDir(), c.StorageBackend)
		}
	}
	if v := os.Getenv("ONSITE_STORAGE_PATH"); v != "" {
		c.StoragePath = expandTilde(v)
	}
	if v := os.Getenv("ONSITE_MEDIA_DIR"); v != "" {
		c.MediaDir = expandTilde(v)
	}
	if v := os.Getenv("ONSITE_CUTOFF_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CutoffSeconds = n
		}
	}
}

// Validate rejects settings that cannot be wired.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderNone:
	default:
		return fmt.Errorf("unknown summary provider %q", c.Provider)
	}
	switch c.TranscribeWith {
	case ProviderOpenAI, ProviderNone:
	default:
		return fmt.Errorf("unknown transcription provider %q", c.TranscribeWith)
	}
	switch c.StorageBackend {
	case db.KindBadger, db.KindSQLite, db.KindCharm:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.CutoffSeconds <= 0 || c.CutoffSeconds > capture.DefaultCutoffSeconds {
		return fmt.Errorf("cutoff_seconds must be between 1 and %d, got %d", capture.DefaultCutoffSeconds, c.CutoffSeconds)
	}
	return nil
}

// SummaryKey is the API key for the selected summary provider.
func (c *Config) SummaryKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIKey
	case ProviderAnthropic:
		return c.AnthropicKey
	case ProviderGemini:
		return c.GeminiKey
	}
	return ""
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// envString takes the first non-empty variable among names.
func envString(dst *string, names ...string) {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			*dst = v
			return
		}
	}
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
