// Package engine runs the classification pipeline over message collections
// and re-runs it when the settings change.
package engine

import (
	"context"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

// Classifier defines the contract for single-message categorization.
type Classifier interface {
	Classify(msg model.Message, snap settings.Snapshot) model.Classification
}

// Publisher receives the results of each batch run.
type Publisher interface {
	PublishResults(ctx context.Context, summary Summary, messages []model.Message) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, summary Summary, messages []model.Message) error

// PublishResults implements Publisher.
func (f PublisherFunc) PublishResults(ctx context.Context, summary Summary, messages []model.Message) error {
	return f(ctx, summary, messages)
}
