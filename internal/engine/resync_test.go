package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
	"github.com/Veraticus/inbox-triage/internal/testutil"
)

type capturePublisher struct {
	summaries []Summary
	messages  [][]model.Message
}

func (p *capturePublisher) PublishResults(_ context.Context, summary Summary, msgs []model.Message) error {
	p.summaries = append(p.summaries, summary)
	p.messages = append(p.messages, msgs)
	return nil
}

func TestResyncer_Sync(t *testing.T) {
	publisher := &capturePublisher{}
	r := NewResyncer(NewBatch(newRuleClassifier(), Options{}), publisher)
	r.SetMessages(sampleMessages())

	_, ok := r.LastSummary()
	assert.False(t, ok)

	summary, err := r.Sync(context.Background(), settings.DefaultSnapshot())
	require.NoError(t, err)

	last, ok := r.LastSummary()
	require.True(t, ok)
	assert.Equal(t, summary.RunID, last.RunID)
	assert.Len(t, r.Results(), len(sampleMessages()))

	require.Len(t, publisher.summaries, 1)
	assert.Equal(t, summary.RunID, publisher.summaries[0].RunID)
	assert.Len(t, publisher.messages[0], len(sampleMessages()))
}

func TestResyncer_PublisherErrorsAreJoined(t *testing.T) {
	good := &capturePublisher{}
	failing := PublisherFunc(func(context.Context, Summary, []model.Message) error {
		return errors.New("sink offline")
	})
	r := NewResyncer(NewBatch(newRuleClassifier(), Options{}), failing, good)
	r.SetMessages(sampleMessages())

	_, err := r.Sync(context.Background(), settings.DefaultSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink offline")
	assert.Len(t, good.summaries, 1, "a failing publisher does not stop the others")
}

func TestResyncer_FollowsSettingsChanges(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	store := db.Store
	broadcaster := settings.NewBroadcaster(store)

	publisher := &capturePublisher{}
	r := NewResyncer(NewBatch(newRuleClassifier(), Options{}), publisher)
	r.SetMessages(sampleMessages())
	broadcaster.AddChangeListener(r)
	broadcaster.AddChangeListener(r)

	_, err := r.Sync(ctx, store.Get())
	require.NoError(t, err)
	before, _ := r.LastSummary()
	assert.Equal(t, 1, before.Breakdown[model.CategoryCC])

	detect := false
	require.NoError(t, broadcaster.RequestChange(ctx, settings.NewChangeRequest(settings.PreferencesChange{DetectCC: &detect})))

	require.Len(t, publisher.summaries, 2, "listener registered once")
	after, _ := r.LastSummary()
	assert.Zero(t, after.Breakdown[model.CategoryCC])
	assert.Equal(t, 1, after.Breakdown[model.CategoryMeetings])

	// Same settings again: identical outcome.
	require.NoError(t, broadcaster.RequestChange(ctx, settings.NewChangeRequest(settings.PreferencesChange{DetectCC: &detect})))
	again, _ := r.LastSummary()
	assert.Equal(t, after.Breakdown, again.Breakdown)
	assert.False(t, db.Reload().Get().Preferences.DetectCC)
}

func TestResyncer_AutoResyncDisabled(t *testing.T) {
	publisher := &capturePublisher{}
	r := NewResyncer(NewBatch(newRuleClassifier(), Options{}), publisher)
	r.SetMessages(sampleMessages())

	snap := settings.DefaultSnapshot()
	snap.AutomationSettings.AutoResync = false

	err := r.OnSettingsChange(context.Background(), settings.KindPreferences, settings.PreferencesChange{}, snap)
	require.NoError(t, err)
	assert.Empty(t, publisher.summaries)

	_, ok := r.LastSummary()
	assert.False(t, ok)
}

func TestTaskCandidates(t *testing.T) {
	msgs := []model.Message{
		{ID: "1", Classification: &model.Classification{CategoryID: model.CategoryTasks, IsPreselectedForTasks: true}},
		{ID: "2", Classification: &model.Classification{CategoryID: model.CategoryFinance}},
		{ID: "3"},
		{ID: "4", Classification: &model.Classification{CategoryID: model.CategoryOther, IsPreselectedForTasks: true, Error: "boom"}},
	}

	got := TaskCandidates(msgs)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestLogPublisher(t *testing.T) {
	err := LogPublisher{}.PublishResults(context.Background(), Summarize([]model.Classification{{CategoryID: "tasks"}}), nil)
	assert.NoError(t, err)
}
