package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
)

// DefaultPreselectCacheTTL is how long TaskPreselectedCategories serves a cached copy.
const DefaultPreselectCacheTTL = 10 * time.Second

// Persister stores the settings blob. LoadSettings returns common.ErrNotFound
// when nothing has been saved yet.
type Persister interface {
	LoadSettings(ctx context.Context) ([]byte, error)
	SaveSettings(ctx context.Context, blob []byte) error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the time source used by the pre-selection cache.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithPreselectCacheTTL overrides the pre-selection cache validity.
func WithPreselectCacheTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.cacheTTL = ttl
	}
}

// Store owns the single live snapshot. Every read returns a copy.
type Store struct {
	persister Persister
	now       func() time.Time
	snapshot  Snapshot

	cacheExpiry time.Time
	cached      []string
	cacheTTL    time.Duration

	mu sync.RWMutex // guards snapshot and the cache fields
}

// NewStore creates a store holding the default snapshot until Load is called.
func NewStore(persister Persister, opts ...StoreOption) *Store {
	s := &Store{
		persister: persister,
		now:       time.Now,
		snapshot:  DefaultSnapshot(),
		cacheTTL:  DefaultPreselectCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted snapshot. Absence or corruption falls back to the
// defaults; the failure is logged and never returned.
func (s *Store) Load(ctx context.Context) Snapshot {
	snap := s.read(ctx)

	s.mu.Lock()
	s.snapshot = snap
	s.invalidateLocked()
	s.mu.Unlock()

	return snap.Clone()
}

func (s *Store) read(ctx context.Context) Snapshot {
	if s.persister == nil {
		return DefaultSnapshot()
	}

	blob, err := s.persister.LoadSettings(ctx)
	if errors.Is(err, common.ErrNotFound) {
		slog.Info("No persisted settings, using defaults")
		return DefaultSnapshot()
	}
	if err != nil {
		common.LogError(err, "Failed to load settings, using defaults", nil)
		return DefaultSnapshot()
	}

	snap := DefaultSnapshot()
	if err := json.Unmarshal(blob, &snap); err != nil {
		common.LogError(err, "Persisted settings are corrupted, using defaults", common.Fields{
			"size": len(blob),
		})
		return DefaultSnapshot()
	}
	snap.normalize()
	return snap
}

// Save replaces the live snapshot and persists it.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	snap = snap.Clone()
	snap.normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snap
	s.invalidateLocked()
	return s.persist(ctx, snap)
}

// Get returns a deep copy of the live snapshot.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Apply merges change into the live snapshot and persists the result. The
// merge is kept in memory even when persisting fails; the error is returned
// so the caller can log it.
func (s *Store) Apply(ctx context.Context, change Change) (Snapshot, error) {
	if change == nil {
		return s.Get(), fmt.Errorf("%w: nil change", common.ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot.Clone()
	change.apply(&next)
	s.snapshot = next

	if change.Kind() == KindTaskPreselectedCategories {
		s.invalidateLocked()
	}

	return next.Clone(), s.persist(ctx, next)
}

// TaskPreselectedCategories returns the pre-selected categories, served from
// a short-lived cache.
func (s *Store) TaskPreselectedCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != nil && now.Before(s.cacheExpiry) {
		return cloneList(s.cached)
	}

	s.cached = nonNil(cloneList(s.snapshot.TaskPreselectedCategories))
	s.cacheExpiry = now.Add(s.cacheTTL)

	return cloneList(s.cached)
}

// InvalidateCache drops the cached pre-selection list.
func (s *Store) InvalidateCache() {
	s.mu.Lock()
	s.invalidateLocked()
	s.mu.Unlock()
}

func (s *Store) invalidateLocked() {
	s.cached = nil
	s.cacheExpiry = time.Time{}
}

func (s *Store) persist(ctx context.Context, snap Snapshot) error {
	if s.persister == nil {
		return nil
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.persister.SaveSettings(ctx, blob); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}
