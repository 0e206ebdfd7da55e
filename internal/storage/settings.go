package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

var _ settings.Persister = (*SQLiteStorage)(nil)

// settingsKey names the single settings record.
const settingsKey = "triage.settings"

// SettingsRevision is one saved version of the settings blob.
type SettingsRevision struct {
	SavedAt time.Time
	Value   string
	ID      int64
}

// LoadSettings returns the persisted settings blob, or common.ErrNotFound
// when none was saved.
func (s *SQLiteStorage) LoadSettings(ctx context.Context) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingsKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return []byte(value), nil
}

// SaveSettings replaces the settings blob and records the revision. Writes
// that hit a locked database are retried.
func (s *SQLiteStorage) SaveSettings(ctx context.Context, blob []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBlob(blob); err != nil {
		return err
	}

	return common.WithRetry(ctx, func() error {
		return s.saveSettingsTx(ctx, blob)
	}, common.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 20 * time.Millisecond,
		Retryable:    isBusy,
	})
}

func (s *SQLiteStorage) saveSettingsTx(ctx context.Context, blob []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, settingsKey, string(blob)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings_history (key, value) VALUES (?, ?)`, settingsKey, string(blob),
	); err != nil {
		return fmt.Errorf("failed to record settings revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}

// isBusy reports whether err is a transient lock conflict.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// SettingsHistory returns up to limit revisions, newest first.
func (s *SQLiteStorage) SettingsHistory(ctx context.Context, limit int) ([]SettingsRevision, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, value, saved_at FROM settings_history
		WHERE key = ?
		ORDER BY id DESC
		LIMIT ?
	`, settingsKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var revisions []SettingsRevision
	for rows.Next() {
		var rev SettingsRevision
		if err := rows.Scan(&rev.ID, &rev.Value, &rev.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settings revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings history: %w", err)
	}
	return revisions, nil
}

// PruneSettingsHistory keeps the newest keep revisions and returns how many
// were removed.
func (s *SQLiteStorage) PruneSettingsHistory(ctx context.Context, keep int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLimit, keep)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM settings_history
		WHERE key = ? AND id NOT IN (
			SELECT id FROM settings_history WHERE key = ? ORDER BY id DESC LIMIT ?
		)
	`, settingsKey, settingsKey, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune settings history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned revisions: %w", err)
	}
	return n, nil
}
