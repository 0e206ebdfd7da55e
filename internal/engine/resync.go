package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

var _ settings.Listener = (*Resyncer)(nil)

// Resyncer owns a message collection and re-classifies it whenever the
// settings change.
type Resyncer struct {
	batch      *Batch
	messages   []model.Message
	results    []model.Message
	publishers []Publisher
	summary    Summary
	hasRun     bool
	mu         sync.RWMutex
	runMu      sync.Mutex // serializes runs
}

// NewResyncer creates a resyncer publishing every run to publishers.
func NewResyncer(batch *Batch, publishers ...Publisher) *Resyncer {
	return &Resyncer{
		batch:      batch,
		publishers: publishers,
	}
}

// SetMessages replaces the message collection.
func (r *Resyncer) SetMessages(msgs []model.Message) {
	r.mu.Lock()
	r.messages = append([]model.Message(nil), msgs...)
	r.mu.Unlock()
}

// Results returns the messages classified by the last run.
func (r *Resyncer) Results() []model.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Message(nil), r.results...)
}

// LastSummary returns the summary of the last run and whether a run happened.
func (r *Resyncer) LastSummary() (Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary, r.hasRun
}

// Sync classifies the collection with snap and publishes the results. The
// run itself never fails; the returned error joins publisher failures.
func (r *Resyncer) Sync(ctx context.Context, snap settings.Snapshot) (Summary, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.mu.RLock()
	msgs := r.messages
	r.mu.RUnlock()

	results, summary := r.batch.Run(msgs, snap)

	r.mu.Lock()
	r.results = results
	r.summary = summary
	r.hasRun = true
	r.mu.Unlock()

	var errs []error
	for _, p := range r.publishers {
		if err := p.PublishResults(ctx, summary, results); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish results: %w", err))
		}
	}
	return summary, errors.Join(errs...)
}

// OnSettingsChange re-runs the classification unless automatic re-sync is off.
func (r *Resyncer) OnSettingsChange(ctx context.Context, kind settings.Kind, _ settings.Change, snap settings.Snapshot) error {
	if !snap.AutomationSettings.AutoResync {
		slog.Debug("Automatic re-sync disabled, skipping", "kind", kind.String())
		return nil
	}

	slog.Debug("Settings changed, re-classifying", "kind", kind.String())
	_, err := r.Sync(ctx, snap)
	return err
}
