// ABOUTME: Tests for the visit subcommands and application wiring
// ABOUTME: Each test opens an App over a throwaway badger store under temp XDG directories
package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/onsite/ai"
	"github.com/harperreed/onsite/config"
	"github.com/harperreed/onsite/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Cleanup(xdg.Reload)
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	xdg.Reload()

	cfg := config.Default()
	cfg.LogFile = ""
	return cfg
}

func openTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := OpenApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func seed(t *testing.T, app *App, name, summaryText string, updated time.Time) *models.Visit {
	t.Helper()
	app.Store.SetClock(func() time.Time { return updated })
	v := models.NewVisit(updated)
	v.CustomerName = name
	v.AccountID = "ACC-" + name
	v.GeneratedSummary = summaryText
	v.Prompts[0].TypedText = "notes"
	require.NoError(t, app.Store.Save(v))
	return v
}

func TestListCommand(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seed(t, app, "Acme", "# Acme\n\nGood visit", base)
	seed(t, app, "Globex", "# Globex\n\nScanners", base.Add(time.Hour))
	seed(t, app, "Initech", "", base.Add(2*time.Hour))

	var out bytes.Buffer
	require.NoError(t, app.ListCommand(nil, &out))
	text := out.String()
	assert.Contains(t, text, "CUSTOMER")
	assert.Contains(t, text, "Acme")
	assert.NotContains(t, text, "Initech")
	assert.Less(t, strings.Index(text, "Globex"), strings.Index(text, "Acme"))
	assert.Contains(t, text, "1/")

	out.Reset()
	require.NoError(t, app.ListCommand([]string{"--query", "scanners"}, &out))
	assert.Contains(t, out.String(), "Globex")
	assert.NotContains(t, out.String(), "Acme")

	out.Reset()
	require.NoError(t, app.ListCommand([]string{"--drafts"}, &out))
	assert.Contains(t, out.String(), "Initech")
	assert.NotContains(t, out.String(), "Globex")

	out.Reset()
	require.NoError(t, app.ListCommand([]string{"--query", "nothing-matches"}, &out))
	assert.Equal(t, "No visits found\n", out.String())
}

func TestShowCommand(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	v := seed(t, app, "Acme", "## Highlights\n\n**Expansion** is likely", time.Now())
	draft := seed(t, app, "Initech", "", time.Now())

	var out bytes.Buffer
	require.NoError(t, app.ShowCommand([]string{v.ID.String()}, &out))
	assert.Contains(t, out.String(), "Acme (🟢 Healthy)")
	assert.Contains(t, out.String(), "Expansion is likely")
	assert.NotContains(t, out.String(), "**")

	out.Reset()
	require.NoError(t, app.ShowCommand([]string{v.ID.String()[:8]}, &out))
	assert.Contains(t, out.String(), "Acme")

	out.Reset()
	require.NoError(t, app.ShowCommand([]string{draft.ID.String()}, &out))
	assert.Contains(t, out.String(), "No summary yet. 1 of")

	assert.Error(t, app.ShowCommand(nil, &out))
	err := app.ShowCommand([]string{"zzzzzzzz"}, &out)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestExportCommandWritesPDF(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	v := seed(t, app, "Acme", "# Acme\n\nGood visit", time.Now())
	path := filepath.Join(t.TempDir(), "acme.pdf")

	var out bytes.Buffer
	require.NoError(t, app.ExportCommand([]string{"--output", path, v.ID.String()}, &out))
	assert.Contains(t, out.String(), "Saved "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportCommandNeedsSummary(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	v := seed(t, app, "Initech", "", time.Now())

	var out bytes.Buffer
	err := app.ExportCommand([]string{"--output", filepath.Join(t.TempDir(), "x.pdf"), v.ID.String()}, &out)
	assert.Error(t, err)
}

func TestExportCommandUploadWithoutDrive(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	v := seed(t, app, "Acme", "# Acme", time.Now())

	var out bytes.Buffer
	err := app.ExportCommand([]string{"--output", filepath.Join(t.TempDir(), "a.pdf"), "--upload", v.ID.String()}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onsite auth")
	assert.Nil(t, app.Workspace.Active())

	saved, err := app.Store.Get(v.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.DriveFileID)
}

func TestDeleteCommand(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	v := seed(t, app, "Acme", "", time.Now())

	var out bytes.Buffer
	require.NoError(t, app.DeleteCommand([]string{v.ID.String()}, &out))
	assert.Equal(t, "Deleted Acme\n", out.String())

	_, err := app.Store.Get(v.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Error(t, app.DeleteCommand([]string{v.ID.String()}, &out))
}

func TestGeneratorFollowsProvider(t *testing.T) {
	cfg := testConfig(t)
	app := openTestApp(t, cfg)

	cfg.Provider = config.ProviderGemini
	assert.Nil(t, app.Generator())

	cfg.GeminiKey = "g-key"
	cfg.SummaryModel = "gemini-pro"
	g, ok := app.Generator().(*ai.Gemini)
	require.True(t, ok)
	assert.Equal(t, "gemini-pro", g.Model)

	cfg.Provider = config.ProviderAnthropic
	cfg.AnthropicKey = "a-key"
	cfg.SummaryModel = ""
	_, ok = app.Generator().(*ai.Anthropic)
	assert.True(t, ok)

	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAIKey = "o-key"
	_, ok = app.Generator().(*ai.OpenAI)
	assert.True(t, ok)

	cfg.Provider = config.ProviderNone
	assert.Nil(t, app.Generator())
}

func TestTranscriberNeedsOpenAIKey(t *testing.T) {
	cfg := testConfig(t)
	app := openTestApp(t, cfg)

	assert.Nil(t, app.Transcriber())

	cfg.OpenAIKey = "o-key"
	assert.NotNil(t, app.Transcriber())

	cfg.TranscribeWith = "none"
	assert.Nil(t, app.Transcriber())
}

func TestRecordersStartIdle(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	intro, question := app.Recorders()
	require.NotNil(t, intro)
	require.NotNil(t, question)
	assert.Equal(t, "idle", intro.State().String())
	assert.False(t, question.Playing())
}

func TestUploaderOnlyWithClientID(t *testing.T) {
	cfg := testConfig(t)
	app := openTestApp(t, cfg)
	assert.Nil(t, app.Uploader)
	assert.False(t, app.Workspace.UploadConfigured())
}

func TestAuthStatus(t *testing.T) {
	cfg := testConfig(t)
	cfg.GoogleClientID = "client"
	cfg.DriveFolderID = "folder123"

	var out bytes.Buffer
	require.NoError(t, AuthCommand(cfg, []string{"--status"}, &out))
	assert.Contains(t, out.String(), "Google Drive: not connected")
	assert.Contains(t, out.String(), "folder123")
}

func TestAuthRequiresCredentials(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	err := AuthCommand(cfg, []string{"--timeout", "1s"}, &out)
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiKey = "g-key"

	var out bytes.Buffer
	require.NoError(t, ConfigCommand(cfg, &out))
	assert.Contains(t, out.String(), config.FilePath())
	assert.Contains(t, out.String(), "gemini (key set)")
	assert.Contains(t, out.String(), "Google Drive:  client not set")
}

func TestMCPServerBuilds(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	assert.NotNil(t, MCPServer(app.Store, "test"))
}

func TestLoggerWritesToFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "onsite.log")
	cfg.LogLevel = "debug"

	logger, closer, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestStatsCommand(t *testing.T) {
	app := openTestApp(t, testConfig(t))
	seed(t, app, "Acme", "# Acme", time.Now())
	seed(t, app, "Initech", "", time.Now())

	var out bytes.Buffer
	require.NoError(t, app.StatsCommand(&out))
	assert.Contains(t, out.String(), "ONSITE VISIT DASHBOARD")
	assert.Contains(t, out.String(), "📋 2 visits  ✅ 1 recaps  ✏️  1 drafts")
}
