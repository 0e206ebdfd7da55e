package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

func TestSQLiteStorage_LoadSettingsMissing(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.LoadSettings(context.Background())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_SaveAndLoadSettings(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveSettings(ctx, []byte(`{"preferences":{"detectCC":true}}`)))
	require.NoError(t, store.SaveSettings(ctx, []byte(`{"preferences":{"detectCC":false}}`)))

	blob, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"preferences":{"detectCC":false}}`, string(blob))

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&rows))
	assert.Equal(t, 1, rows, "settings is a single record")
}

func TestSQLiteStorage_SaveSettingsRejectsInvalidBlob(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name string
		blob []byte
	}{
		{name: "empty", blob: nil},
		{name: "truncated", blob: []byte(`{"preferences":`)},
		{name: "plain text", blob: []byte(`hello`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, store.SaveSettings(ctx, tt.blob), ErrInvalidBlob)
		})
	}

	_, err := store.LoadSettings(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_SettingsHistory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, v := range []string{`{"v":1}`, `{"v":2}`, `{"v":3}`} {
		require.NoError(t, store.SaveSettings(ctx, []byte(v)))
	}

	history, err := store.SettingsHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.JSONEq(t, `{"v":3}`, history[0].Value)
	assert.JSONEq(t, `{"v":2}`, history[1].Value)
	assert.False(t, history[0].SavedAt.IsZero())

	removed, err := store.PruneSettingsHistory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	history, err = store.SettingsHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.JSONEq(t, `{"v":3}`, history[0].Value)

	_, err = store.SettingsHistory(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidLimit)
}

func TestSQLiteStorage_BacksSettingsStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "triage.db")

	db, err := Open(ctx, dbPath)
	require.NoError(t, err)

	store := settings.NewStore(db)
	assert.Equal(t, settings.DefaultSnapshot(), store.Load(ctx))

	_, err = store.Apply(ctx, settings.TaskPreselectedChange{IDs: []string{"tasks", "finance"}})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	snap := settings.NewStore(reopened).Load(ctx)
	assert.Equal(t, []string{"tasks", "finance"}, snap.TaskPreselectedCategories)
	assert.True(t, snap.Preferences.DetectCC)
}

func TestSQLiteStorage_ChangeSurvivesCanceledCaller(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "triage.db")
	db, err := Open(context.Background(), dbPath)
	require.NoError(t, err)

	store := settings.NewStore(db)
	store.Load(context.Background())
	broadcaster := settings.NewBroadcaster(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := settings.NewChangeRequest(settings.TaskPreselectedChange{IDs: []string{"tasks"}})
	require.NoError(t, broadcaster.RequestChange(ctx, req))
	assert.Equal(t, []string{"tasks"}, store.Get().TaskPreselectedCategories)
	require.NoError(t, db.Close())

	reopened, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	snap := settings.NewStore(reopened).Load(context.Background())
	assert.Equal(t, []string{"tasks"}, snap.TaskPreselectedCategories)
}

func TestSQLiteStorage_CorruptedRecordFallsBack(t *testing.T) {
	db, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, settingsKey, "{broken")
	require.NoError(t, err)

	snap := settings.NewStore(db).Load(ctx)
	assert.Equal(t, settings.DefaultSnapshot(), snap)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(fmt.Errorf("wrapped: %w", sqlite3.Error{Code: sqlite3.ErrBusy})))
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, isBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, isBusy(common.ErrNotFound))
}
