// Package testutil provides test helpers for packages that need a real
// settings database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/inbox-triage/internal/settings"
	"github.com/Veraticus/inbox-triage/internal/storage"
)

// TestDB is an in-memory settings database with a loaded settings store.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Store   *settings.Store
	t       *testing.T
}

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	// Snapshot is saved before the store is loaded when non-nil.
	Snapshot       *settings.Snapshot
	StoreOptions   []settings.StoreOption
	SkipMigrations bool
}

// SetupTestDB creates an in-memory database holding default settings.
// Cleanup is registered on t.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates an in-memory database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	db, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	store := settings.NewStore(db, opts.StoreOptions...)
	if opts.Snapshot != nil {
		if err := store.Save(ctx, *opts.Snapshot); err != nil {
			t.Fatalf("failed to seed settings: %v", err)
		}
	}
	store.Load(ctx)

	return &TestDB{
		Storage: db,
		Store:   store,
		t:       t,
	}
}

// Reload returns a fresh store over the same database, as a restarted
// process would see it.
func (db *TestDB) Reload() *settings.Store {
	db.t.Helper()
	store := settings.NewStore(db.Storage)
	store.Load(context.Background())
	return store
}
