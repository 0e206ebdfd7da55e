package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/inbox-triage/internal/classification"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

func testDefs() []model.CategoryDefinition {
	return []model.CategoryDefinition{
		{ID: "tasks", DisplayName: "Tasks", Icon: "✅", Description: "Things to do"},
		{ID: "finance", DisplayName: "Finance", Icon: "💰", Description: "Invoices"},
		{ID: "security", DisplayName: "Security", Icon: "🔒", Description: "Alerts"},
	}
}

func press(t *testing.T, m PickerModel, msgs ...tea.KeyMsg) (PickerModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var updated tea.Model
		updated, cmd = m.Update(msg)
		var ok bool
		m, ok = updated.(PickerModel)
		require.True(t, ok)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewPickerModel(t *testing.T) {
	t.Run("nil active set checks everything", func(t *testing.T) {
		m := NewPickerModel(testDefs(), settings.DefaultSnapshot())
		res := m.Result()
		assert.Nil(t, res.Active)
		assert.Empty(t, res.Preselected)
		assert.False(t, res.Saved)
	})

	t.Run("explicit sets are loaded", func(t *testing.T) {
		snap := settings.DefaultSnapshot()
		snap.ActiveCategories = []string{"finance"}
		snap.TaskPreselectedCategories = []string{"tasks", "security"}

		res := NewPickerModel(testDefs(), snap).Result()
		assert.Equal(t, []string{"finance"}, res.Active)
		assert.Equal(t, []string{"tasks", "security"}, res.Preselected)
	})
}

func TestPickerModel_ToggleActive(t *testing.T) {
	m := NewPickerModel(testDefs(), settings.DefaultSnapshot())

	m, _ = press(t, m, keyDown, keySpace)
	assert.Equal(t, []string{"tasks", "security"}, m.Result().Active)

	m, _ = press(t, m, runes("x"))
	assert.Nil(t, m.Result().Active, "re-checking every category returns to all")
}

func TestPickerModel_CursorBounds(t *testing.T) {
	m := NewPickerModel(testDefs(), settings.DefaultSnapshot())

	m, _ = press(t, m, keyUp, keyUp)
	assert.Equal(t, 0, m.cursor)

	m, _ = press(t, m, keyDown, keyDown, keyDown, keyDown)
	assert.Equal(t, 2, m.cursor)

	m, _ = press(t, m, runes("k"))
	assert.Equal(t, 1, m.cursor)
}

func TestPickerModel_PreselectedList(t *testing.T) {
	m := NewPickerModel(testDefs(), settings.DefaultSnapshot())

	m, _ = press(t, m, keyTab, keySpace, keyDown, keyDown, keySpace)
	res := m.Result()
	assert.Equal(t, []string{"tasks", "security"}, res.Preselected)
	assert.Nil(t, res.Active, "active set untouched")

	m, _ = press(t, m, keyTab)
	assert.Equal(t, ListActive, m.list)
}

func TestPickerModel_AllAndNone(t *testing.T) {
	m := NewPickerModel(testDefs(), settings.DefaultSnapshot())

	m, _ = press(t, m, runes("n"))
	assert.Equal(t, []string{}, m.Result().Active)

	m, _ = press(t, m, runes("a"))
	assert.Nil(t, m.Result().Active)

	m, _ = press(t, m, keyTab, runes("a"))
	assert.Equal(t, []string{"tasks", "finance", "security"}, m.Result().Preselected)
}

func TestPickerModel_SaveAndQuit(t *testing.T) {
	tests := []struct {
		name  string
		key   tea.KeyMsg
		saved bool
	}{
		{name: "enter saves", key: keyEnter, saved: true},
		{name: "s saves", key: runes("s"), saved: true},
		{name: "q quits", key: runes("q"), saved: false},
		{name: "esc quits", key: keyEsc, saved: false},
		{name: "ctrl+c quits", key: tea.KeyMsg{Type: tea.KeyCtrlC}, saved: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPickerModel(testDefs(), settings.DefaultSnapshot())
			m, cmd := press(t, m, tt.key)

			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.Equal(t, tt.saved, m.Result().Saved)
			assert.Empty(t, m.View())
		})
	}
}

func TestPickerModel_View(t *testing.T) {
	snap := settings.DefaultSnapshot()
	snap.ActiveCategories = []string{"tasks"}
	m := NewPickerModel(testDefs(), snap)

	view := m.View()
	assert.Contains(t, view, "Categories")
	assert.Contains(t, view, "Active categories")
	assert.Contains(t, view, "Proposed as tasks")
	assert.Contains(t, view, "Finance")
	assert.Contains(t, view, "Invoices")
	assert.Equal(t, 1, strings.Count(view, "[x]"))

	m, _ = press(t, m, runes("?"))
	assert.Contains(t, m.View(), "select none")
}

func TestPickerModel_EmptyRegistry(t *testing.T) {
	m := NewPickerModel(nil, settings.DefaultSnapshot())
	m, _ = press(t, m, keyDown, keySpace)

	res := m.Result()
	assert.Nil(t, res.Active)
	assert.Empty(t, res.Preselected)
}

func TestPickerModel_DefaultRegistry(t *testing.T) {
	defs := classification.DefaultRegistry().Categories()
	m := NewPickerModel(defs, settings.DefaultSnapshot())

	m, _ = press(t, m, keySpace)
	res := m.Result()
	require.Len(t, res.Active, len(defs)-1)
	assert.NotContains(t, res.Active, defs[0].ID)
}

func TestRunPicker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := RunPicker(ctx, testDefs(), settings.DefaultSnapshot(), strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category picker failed")
}
