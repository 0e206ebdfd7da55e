// Package tui provides the interactive category picker.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

// List selects which set the picker edits.
type List int

// Picker lists.
const (
	ListActive List = iota
	ListPreselected
)

func (l List) String() string {
	if l == ListPreselected {
		return "Proposed as tasks"
	}
	return "Active categories"
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#666666"))
	activeTab     = tabStyle.Bold(true).Foreground(lipgloss.Color("#4ECDC4")).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

// Result is the outcome of a picker session.
type Result struct {
	// Active is nil when every category is selected.
	Active      []string
	Preselected []string
	Saved       bool
}

// PickerModel edits the active and pre-selected category sets.
type PickerModel struct {
	keys        KeyMap
	help        help.Model
	defs        []model.CategoryDefinition
	active      map[string]bool
	preselected map[string]bool
	list        List
	cursor      int
	width       int
	saved       bool
	done        bool
}

// NewPickerModel starts a picker on the state of snap.
func NewPickerModel(defs []model.CategoryDefinition, snap settings.Snapshot) PickerModel {
	m := PickerModel{
		keys:        DefaultKeyMap(),
		help:        help.New(),
		defs:        defs,
		active:      make(map[string]bool, len(defs)),
		preselected: make(map[string]bool, len(defs)),
	}
	for _, def := range defs {
		m.active[def.ID] = snap.ActiveCategories == nil
	}
	for _, id := range snap.ActiveCategories {
		m.active[id] = true
	}
	for _, id := range snap.TaskPreselectedCategories {
		m.preselected[id] = true
	}
	return m
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Save):
			m.done = true
			m.saved = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.defs)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			if len(m.defs) > 0 {
				id := m.defs[m.cursor].ID
				set := m.current()
				set[id] = !set[id]
			}
		case key.Matches(msg, m.keys.SwitchList):
			m.list = (m.list + 1) % 2
		case key.Matches(msg, m.keys.All):
			m.setAll(true)
		case key.Matches(msg, m.keys.None):
			m.setAll(false)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m PickerModel) current() map[string]bool {
	if m.list == ListPreselected {
		return m.preselected
	}
	return m.active
}

func (m PickerModel) setAll(v bool) {
	set := m.current()
	for _, def := range m.defs {
		set[def.ID] = v
	}
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("📥 Categories") + "\n\n")

	tabs := make([]string, 0, 2)
	for _, l := range []List{ListActive, ListPreselected} {
		style := tabStyle
		if l == m.list {
			style = activeTab
		}
		tabs = append(tabs, style.Render(l.String()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	set := m.current()
	for i, def := range m.defs {
		cursor := "  "
		name := def.DisplayName
		if i == m.cursor {
			cursor = cursorStyle.Render("▸ ")
			name = selectedStyle.Render(name)
		}
		check := "[ ]"
		if set[def.ID] {
			check = checkedStyle.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s %s %s %s\n", cursor, check, def.Icon, name, descStyle.Render(def.Description))
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// Result returns the selection. Active is nil when every category is
// checked, so categories added later stay active.
func (m PickerModel) Result() Result {
	res := Result{
		Saved:       m.saved,
		Preselected: []string{},
	}

	all := true
	active := []string{}
	for _, def := range m.defs {
		if m.active[def.ID] {
			active = append(active, def.ID)
		} else {
			all = false
		}
		if m.preselected[def.ID] {
			res.Preselected = append(res.Preselected, def.ID)
		}
	}
	if !all {
		res.Active = active
	}
	return res
}
