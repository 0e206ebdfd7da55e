package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/metrics"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

// DefaultChunkSize is the number of messages classified between yields.
const DefaultChunkSize = 25

// Options configures batch classification behavior.
type Options struct {
	Progress  func(done, total int) // Called after each message, never concurrently
	Recorder  *metrics.Recorder
	ChunkSize int // Messages per chunk; ScanSettings.ChunkSize overrides it when set
	Workers   int // Parallel classifications within a chunk
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ChunkSize: DefaultChunkSize,
		Workers:   runtime.GOMAXPROCS(0),
	}
}

// Batch classifies message collections.
type Batch struct {
	classifier Classifier
	opts       Options
}

// NewBatch creates a batch runner. Non-positive sizes fall back to the defaults.
func NewBatch(classifier Classifier, opts Options) *Batch {
	defaults := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaults.ChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	return &Batch{classifier: classifier, opts: opts}
}

// Run classifies msgs with snap and returns the scanned messages, each with
// its classification attached, plus the run summary. The input slice is not
// modified. A message that fails to classify is assigned to "other" with an
// error marker; the run always completes.
func (b *Batch) Run(msgs []model.Message, snap settings.Snapshot) ([]model.Message, Summary) {
	started := time.Now()
	runID := uuid.New()

	scanned := selectMessages(msgs, snap.ScanSettings)
	results := make([]model.Classification, len(scanned))

	chunkSize := b.opts.ChunkSize
	if snap.ScanSettings.ChunkSize > 0 {
		chunkSize = snap.ScanSettings.ChunkSize
	}

	slog.Debug("Starting batch classification",
		"run_id", runID.String(),
		"messages", len(scanned),
		"chunk_size", chunkSize,
		"workers", b.opts.Workers)

	var (
		progressMu sync.Mutex
		done       int
	)
	report := func() {
		if b.opts.Progress == nil {
			return
		}
		progressMu.Lock()
		done++
		b.opts.Progress(done, len(scanned))
		progressMu.Unlock()
	}

	for start := 0; start < len(scanned); start += chunkSize {
		end := min(start+chunkSize, len(scanned))

		var g errgroup.Group
		g.SetLimit(b.opts.Workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = b.classifyOne(scanned[i], snap)
				report()
				return nil
			})
		}
		// Workers never fail: classifyOne turns panics into error results.
		_ = g.Wait()

		// Let other goroutines run between chunks.
		runtime.Gosched()
	}

	out := make([]model.Message, len(scanned))
	for i, msg := range scanned {
		result := results[i]
		msg.Classification = &result
		out[i] = msg

		if result.Failed() {
			b.opts.Recorder.ObserveClassificationError()
		}
		b.opts.Recorder.ObserveClassification(result.CategoryID)
	}

	summary := Summarize(results)
	summary.RunID = runID
	summary.StartedAt = started
	summary.Duration = time.Since(started)
	b.opts.Recorder.ObserveBatch(summary.Duration)

	slog.Info("Batch classification complete",
		"run_id", runID.String(),
		"total", summary.Total,
		"categorized", summary.Categorized,
		"errors", summary.Stats.Errors,
		"duration", summary.Duration)

	return out, summary
}

func (b *Batch) classifyOne(msg model.Message, snap settings.Snapshot) (result model.Classification) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %w", common.ErrClassificationFailed, common.Recovered(r))
			common.LogError(err, "Failed to classify message", common.Fields{"message_id": msg.ID})
			result = model.Classification{
				CategoryID: model.CategoryOther,
				Error:      err.Error(),
			}
		}
	}()
	return b.classifier.Classify(msg, snap)
}

// selectMessages applies the read filter and the scan cap.
func selectMessages(msgs []model.Message, scan settings.ScanSettings) []model.Message {
	selected := make([]model.Message, 0, len(msgs))
	for _, msg := range msgs {
		if !scan.IncludeRead && msg.IsRead {
			continue
		}
		selected = append(selected, msg)
		if scan.MaxMessages > 0 && len(selected) == scan.MaxMessages {
			break
		}
	}
	return selected
}
