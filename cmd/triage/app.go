package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Veraticus/inbox-triage/internal/classification"
	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/config"
	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/metrics"
	"github.com/Veraticus/inbox-triage/internal/settings"
	"github.com/Veraticus/inbox-triage/internal/storage"
)

// app holds the components shared by the commands.
type app struct {
	cfg         config.Config
	storage     *storage.SQLiteStorage
	store       *settings.Store
	broadcaster *settings.Broadcaster
	classifier  *classification.Classifier
	recorder    *metrics.Recorder
}

// openApp opens the settings database and wires the pipeline. Metrics are
// registered on reg when it is non-nil.
func openApp(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (*app, error) {
	var recorder *metrics.Recorder
	if reg != nil {
		r, err := metrics.NewRecorder(reg)
		if err != nil {
			return nil, err
		}
		recorder = r
	}

	db, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, common.NewUserError("Could not open the settings database", err)
	}

	store := settings.NewStore(db)
	store.Load(ctx)

	broadcaster := settings.NewBroadcaster(store,
		settings.WithNotifyDelay(cfg.Sync.NotifyDelay),
		settings.WithRecorder(recorder))

	classifier := classification.NewClassifier(classification.DefaultRegistry(), classification.Options{
		UserAddress: cfg.User.Address,
		JunkFolders: cfg.Classification.JunkFolders,
	})

	return &app{
		cfg:         cfg,
		storage:     db,
		store:       store,
		broadcaster: broadcaster,
		classifier:  classifier,
		recorder:    recorder,
	}, nil
}

func (a *app) newBatch(progress func(done, total int)) *engine.Batch {
	opts := engine.DefaultOptions()
	if a.cfg.Batch.ChunkSize > 0 {
		opts.ChunkSize = a.cfg.Batch.ChunkSize
	}
	if a.cfg.Batch.Workers > 0 {
		opts.Workers = a.cfg.Batch.Workers
	}
	opts.Recorder = a.recorder
	opts.Progress = progress
	return engine.NewBatch(a.classifier, opts)
}

// requestChange routes change through the broadcaster and waits for the
// any-change hooks. Category ids are checked against the registry first.
func (a *app) requestChange(ctx context.Context, change settings.Change) (settings.Snapshot, error) {
	if err := validateCategories(a.classifier.Registry(), change); err != nil {
		return settings.Snapshot{}, err
	}

	req := settings.NewChangeRequest(change)
	if err := a.broadcaster.RequestChange(ctx, req); err != nil {
		return settings.Snapshot{}, fmt.Errorf("failed to apply settings change: %w", err)
	}
	a.broadcaster.WaitNotifications()

	slog.Debug("Settings change applied", "id", req.ID.String(), "kind", change.Kind().String())
	return a.store.Get(), nil
}

func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		slog.Warn("Failed to close settings database", "error", err)
	}
}

func validateCategories(registry *classification.Registry, change settings.Change) error {
	var ids []string
	switch c := change.(type) {
	case settings.ActiveCategoriesChange:
		ids = c.IDs
	case settings.TaskPreselectedChange:
		ids = c.IDs
	}

	for _, id := range ids {
		if _, ok := registry.Category(id); !ok {
			return common.NewUserError(
				fmt.Sprintf("Unknown category %q. Run 'triage categories' to list them.", id),
				fmt.Errorf("%w: category %q", common.ErrInvalidConfig, id))
		}
	}
	return nil
}
