package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/inbox-triage/internal/settings"
)

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t)

	assert.Equal(t, settings.DefaultSnapshot(), db.Store.Get())
}

func TestSetupTestDBWithOptions_Snapshot(t *testing.T) {
	snap := settings.DefaultSnapshot()
	snap.TaskPreselectedCategories = []string{"tasks"}

	db := SetupTestDBWithOptions(t, TestDBOptions{Snapshot: &snap})

	assert.Equal(t, []string{"tasks"}, db.Store.Get().TaskPreselectedCategories)
}

func TestReload(t *testing.T) {
	db := SetupTestDB(t)

	_, err := db.Store.Apply(context.Background(), settings.TaskPreselectedChange{IDs: []string{"finance"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"finance"}, db.Reload().Get().TaskPreselectedCategories)
}
