package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/config"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
	"github.com/Veraticus/inbox-triage/internal/storage"
	"github.com/Veraticus/inbox-triage/internal/testutil/messages"
)

const testUser = "me@corp.example"

// useTestConfig points the commands at a fresh database for the test.
func useTestConfig(t *testing.T) config.Config {
	t.Helper()

	previous := appConfig
	t.Cleanup(func() { appConfig = previous })

	appConfig = config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "triage.db")},
		User:     config.UserConfig{Address: testUser},
		Sync:     config.SyncConfig{DrainInterval: time.Second, NotifyDelay: time.Millisecond},
		Batch:    config.BatchConfig{ChunkSize: 2, Workers: 2},
		Logging:  config.LoggingConfig{Level: "info", Format: "console"},
	}
	return appConfig
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func persistedSnapshot(t *testing.T, path string) settings.Snapshot {
	t.Helper()

	db, err := storage.Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	blob, err := db.LoadSettings(context.Background())
	require.NoError(t, err)

	var snap settings.Snapshot
	require.NoError(t, json.Unmarshal(blob, &snap))
	return snap
}

func writeInbox(t *testing.T) string {
	t.Helper()

	data, err := json.Marshal(messages.Messages(messages.MixedInbox(testUser)))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "inbox.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRootCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"categories", "classify", "settings", "serve", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestSettingsSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range settingsCmd().Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"show", "set-active", "set-preselected", "exclude", "prefs", "scan", "automation", "history", "reset", "pick"} {
		assert.True(t, names[want], "missing settings command %s", want)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, versionCmd())
	require.NoError(t, err)
	assert.Equal(t, "triage dev\n", out)
}

func TestCategoriesCmd(t *testing.T) {
	useTestConfig(t)

	out, err := execute(t, categoriesCmd())
	require.NoError(t, err)
	assert.Contains(t, out, model.CategoryNewsletters)
	assert.Contains(t, out, model.CategoryTasks)

	out, err = execute(t, categoriesCmd(), "--json")
	require.NoError(t, err)
	var defs []model.CategoryDefinition
	require.NoError(t, json.Unmarshal([]byte(out), &defs))
	assert.Len(t, defs, 11)
}

func TestClassifyCmd_JSON(t *testing.T) {
	useTestConfig(t)
	inbox := writeInbox(t)

	out, err := execute(t, classifyCmd(), "--input", inbox, "--json")
	require.NoError(t, err)

	var result classifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	want := messages.Categories(messages.MixedInbox(testUser))
	require.Len(t, result.Messages, len(want))
	for i, msg := range result.Messages {
		require.NotNil(t, msg.Classification)
		assert.Equal(t, want[i], msg.Classification.CategoryID, "message %s", msg.ID)
	}
	assert.Equal(t, len(want), result.Summary.Total)
}

func TestClassifyCmd_Rendered(t *testing.T) {
	useTestConfig(t)
	inbox := writeInbox(t)

	out, err := execute(t, classifyCmd(), "--input", inbox, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Classification summary")
	assert.Contains(t, out, "Action requise")
}

func TestClassifyCmd_MissingFile(t *testing.T) {
	useTestConfig(t)

	_, err := execute(t, classifyCmd(), "--input", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestSettingsCmd_Preselected(t *testing.T) {
	cfg := useTestConfig(t)

	out, err := execute(t, settingsCmd(), "set-preselected", "tasks", "security")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated taskPreselectedCategories")

	assert.Equal(t, []string{"tasks", "security"}, persistedSnapshot(t, cfg.Database.Path).TaskPreselectedCategories)
}

func TestSettingsCmd_UnknownCategory(t *testing.T) {
	useTestConfig(t)

	_, err := execute(t, settingsCmd(), "set-active", "tasks", "bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestSettingsCmd_SetActiveAll(t *testing.T) {
	cfg := useTestConfig(t)

	_, err := execute(t, settingsCmd(), "set-active", "tasks")
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks"}, persistedSnapshot(t, cfg.Database.Path).ActiveCategories)

	_, err = execute(t, settingsCmd(), "set-active", "--all")
	require.NoError(t, err)
	assert.Nil(t, persistedSnapshot(t, cfg.Database.Path).ActiveCategories)

	_, err = execute(t, settingsCmd(), "set-active")
	assert.Error(t, err)
}

func TestSettingsCmd_PrefsChangeClassification(t *testing.T) {
	cfg := useTestConfig(t)
	inbox := writeInbox(t)

	out, err := execute(t, settingsCmd(), "prefs", "--detect-cc=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings changed: preferences", "notifications are on by default")

	snap := persistedSnapshot(t, cfg.Database.Path)
	assert.False(t, snap.Preferences.DetectCC)
	assert.True(t, snap.Preferences.ExcludeSpam, "unset flags are left alone")

	out, err = execute(t, classifyCmd(), "--input", inbox, "--json")
	require.NoError(t, err)
	var result classifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, model.CategoryMeetings, result.Messages[3].Classification.CategoryID)

	_, err = execute(t, settingsCmd(), "prefs")
	assert.Error(t, err)
}

func TestSettingsCmd_Exclude(t *testing.T) {
	cfg := useTestConfig(t)

	_, err := execute(t, settingsCmd(), "exclude", "--domains", "b.com,shop.example")
	require.NoError(t, err)

	snap := persistedSnapshot(t, cfg.Database.Path)
	assert.Equal(t, []string{"b.com", "shop.example"}, snap.CategoryExclusions.Domains)
	assert.Empty(t, snap.CategoryExclusions.Emails)

	_, err = execute(t, settingsCmd(), "exclude")
	assert.Error(t, err)
}

func TestSettingsCmd_ScanAndAutomation(t *testing.T) {
	cfg := useTestConfig(t)

	_, err := execute(t, settingsCmd(), "scan", "--max-messages", "3", "--include-read=false")
	require.NoError(t, err)
	_, err = execute(t, settingsCmd(), "automation", "--auto-resync=false")
	require.NoError(t, err)

	snap := persistedSnapshot(t, cfg.Database.Path)
	assert.Equal(t, 3, snap.ScanSettings.MaxMessages)
	assert.False(t, snap.ScanSettings.IncludeRead)
	assert.Equal(t, settings.DefaultSnapshot().ScanSettings.ChunkSize, snap.ScanSettings.ChunkSize)
	assert.False(t, snap.AutomationSettings.AutoResync)

	_, err = execute(t, settingsCmd(), "scan", "--chunk-size", "-1")
	assert.Error(t, err)
}

func TestSettingsCmd_ShowHistoryReset(t *testing.T) {
	useTestConfig(t)

	out, err := execute(t, settingsCmd(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No settings saved yet")

	_, err = execute(t, settingsCmd(), "set-preselected", "finance")
	require.NoError(t, err)
	_, err = execute(t, settingsCmd(), "set-preselected", "tasks")
	require.NoError(t, err)

	out, err = execute(t, settingsCmd(), "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"tasks"`)
	assert.NotContains(t, out, `"finance"`)

	out, err = execute(t, settingsCmd(), "history", "--prune", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 old revisions")

	_, err = execute(t, settingsCmd(), "reset")
	require.NoError(t, err)

	out, err = execute(t, settingsCmd(), "show", "--json")
	require.NoError(t, err)
	var snap settings.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Empty(t, snap.TaskPreselectedCategories)
}
