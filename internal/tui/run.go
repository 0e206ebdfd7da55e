package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

// RunPicker runs the picker until the user saves or quits.
func RunPicker(ctx context.Context, defs []model.CategoryDefinition, snap settings.Snapshot, in io.Reader, out io.Writer) (Result, error) {
	program := tea.NewProgram(
		NewPickerModel(defs, snap),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("category picker failed: %w", err)
	}

	picker, ok := final.(PickerModel)
	if !ok {
		return Result{}, fmt.Errorf("category picker returned %T", final)
	}
	return picker.Result(), nil
}
