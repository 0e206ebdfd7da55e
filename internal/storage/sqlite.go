// Package storage provides the data persistence layer for the triage application.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/inbox-triage/internal/common"
)

const memoryPath = ":memory:"

// SQLiteStorage persists the settings blob in SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance. Use ":memory:"
// for a throwaway database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dsn := dbPath
	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		if isCorrupt(err) {
			return nil, fmt.Errorf("%w: %s: %w", common.ErrDatabaseCorrupted, dbPath, err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Open creates the storage and applies pending migrations.
func Open(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.CheckIntegrity(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// CheckIntegrity runs SQLite's quick check and reports damage as
// common.ErrDatabaseCorrupted.
func (s *SQLiteStorage) CheckIntegrity(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		if isCorrupt(err) {
			return fmt.Errorf("%w: %s: %w", common.ErrDatabaseCorrupted, s.dbPath, err)
		}
		return fmt.Errorf("failed to check database integrity: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s: %s", common.ErrDatabaseCorrupted, s.dbPath, result)
	}
	return nil
}

// isCorrupt reports whether err means the file is damaged or not a database.
func isCorrupt(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrCorrupt || sqliteErr.Code == sqlite3.ErrNotADB
}

// Path returns the database location.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
