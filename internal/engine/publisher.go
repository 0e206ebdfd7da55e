package engine

import (
	"context"
	"log/slog"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// LogPublisher writes a one-line summary of each run to the default logger.
type LogPublisher struct{}

// PublishResults implements Publisher.
func (LogPublisher) PublishResults(_ context.Context, summary Summary, _ []model.Message) error {
	attrs := []any{
		"run_id", summary.RunID.String(),
		"total", summary.Total,
		"categorized", summary.Categorized,
		"preselected", summary.Stats.PreselectedForTasks,
		"errors", summary.Stats.Errors,
	}
	for _, b := range summary.SortedBreakdown() {
		attrs = append(attrs, "category_"+b.Label, b.Count)
	}
	slog.Info("Classification results", attrs...)
	return nil
}

// TaskCandidates returns the messages whose category is pre-selected for
// tasks, in collection order.
func TaskCandidates(messages []model.Message) []model.Message {
	var out []model.Message
	for _, msg := range messages {
		if msg.Classification != nil && msg.Classification.IsPreselectedForTasks && !msg.Classification.Failed() {
			out = append(out, msg)
		}
	}
	return out
}
