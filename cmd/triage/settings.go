package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/inbox-triage/internal/cli"
	"github.com/Veraticus/inbox-triage/internal/settings"
	"github.com/Veraticus/inbox-triage/internal/tui"
)

const defaultHistoryLimit = 10

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change classification settings",
		Long: `Show or change the classification settings. Every change goes through the
same queue as the settings server and is persisted before the command exits.`,
	}

	cmd.AddCommand(showSettingsCmd())
	cmd.AddCommand(setActiveCmd())
	cmd.AddCommand(setPreselectedCmd())
	cmd.AddCommand(excludeCmd())
	cmd.AddCommand(prefsCmd())
	cmd.AddCommand(scanCmd())
	cmd.AddCommand(automationCmd())
	cmd.AddCommand(historyCmd())
	cmd.AddCommand(resetSettingsCmd())
	cmd.AddCommand(pickCmd())

	return cmd
}

func showSettingsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), appConfig, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.store.Get()
			if asJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), snap)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSnapshot(snap))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print settings as JSON")
	return cmd
}

func setActiveCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "set-active [category...]",
		Short: "Choose which categories are scored",
		Long: `Replace the set of active categories. With --all every category is scored.
Newsletters are always detected, active or not.`,
		Example: `  triage settings set-active tasks finance security
  triage settings set-active --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass at least one category or --all")
			}
			return runChange(cmd, settings.ActiveCategoriesChange{IDs: args, All: all})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "activate every category")
	return cmd
}

func setPreselectedCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set-preselected [category...]",
		Short:   "Choose which categories are proposed as tasks",
		Long:    `Replace the categories whose messages are pre-selected for task creation. No arguments clears the list.`,
		Example: `  triage settings set-preselected tasks security`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(cmd, settings.TaskPreselectedChange{IDs: args})
		},
	}
}

func excludeCmd() *cobra.Command {
	var domains, emails []string

	cmd := &cobra.Command{
		Use:   "exclude",
		Short: "Set senders that are never classified",
		Long: `Replace the excluded domains and/or emails. A domain also covers its
subdomains. Lists not passed are left unchanged; pass an empty value to clear one.`,
		Example: `  triage settings exclude --domains example.com,corp.example
  triage settings exclude --emails boss@corp.example
  triage settings exclude --domains ""`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var change settings.ExclusionsChange
			if cmd.Flags().Changed("domains") {
				change.Domains = &domains
			}
			if cmd.Flags().Changed("emails") {
				change.Emails = &emails
			}
			if change.Domains == nil && change.Emails == nil {
				return fmt.Errorf("pass --domains and/or --emails")
			}
			return runChange(cmd, change)
		},
	}

	cmd.Flags().StringSliceVar(&domains, "domains", nil, "excluded sender domains")
	cmd.Flags().StringSliceVar(&emails, "emails", nil, "excluded sender addresses")
	return cmd
}

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Change filter preferences",
		Example: `  triage settings prefs --detect-cc=false
  triage settings prefs --exclude-spam --notifications`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			change := settings.PreferencesChange{
				ExcludeSpam:       changedBool(cmd, "exclude-spam"),
				DetectCC:          changedBool(cmd, "detect-cc"),
				ShowNotifications: changedBool(cmd, "notifications"),
			}
			if change == (settings.PreferencesChange{}) {
				return fmt.Errorf("pass at least one preference flag")
			}
			return runChange(cmd, change)
		},
	}

	cmd.Flags().Bool("exclude-spam", true, "classify messages in junk folders as spam")
	cmd.Flags().Bool("detect-cc", true, "classify messages where you are only copied as cc")
	cmd.Flags().Bool("notifications", true, "print a notice when settings change")
	return cmd
}

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scan",
		Short:   "Change batch scan settings",
		Example: `  triage settings scan --chunk-size 50 --max-messages 500 --include-read=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			change := settings.ScanSettingsChange{
				ChunkSize:   changedInt(cmd, "chunk-size"),
				MaxMessages: changedInt(cmd, "max-messages"),
				IncludeRead: changedBool(cmd, "include-read"),
			}
			if change == (settings.ScanSettingsChange{}) {
				return fmt.Errorf("pass at least one scan flag")
			}
			if change.ChunkSize != nil && *change.ChunkSize < 0 || change.MaxMessages != nil && *change.MaxMessages < 0 {
				return fmt.Errorf("scan values must not be negative")
			}
			return runChange(cmd, change)
		},
	}

	cmd.Flags().Int("chunk-size", settings.DefaultSnapshot().ScanSettings.ChunkSize, "messages classified per chunk")
	cmd.Flags().Int("max-messages", 0, "maximum messages per scan, 0 for no limit")
	cmd.Flags().Bool("include-read", true, "include messages already read")
	return cmd
}

func automationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "automation",
		Short:   "Change what happens after a settings change",
		Example: `  triage settings automation --auto-resync=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			change := settings.AutomationChange{
				AutoResync:      changedBool(cmd, "auto-resync"),
				AutoCreateTasks: changedBool(cmd, "auto-create-tasks"),
			}
			if change == (settings.AutomationChange{}) {
				return fmt.Errorf("pass at least one automation flag")
			}
			return runChange(cmd, change)
		},
	}

	cmd.Flags().Bool("auto-resync", true, "re-classify loaded messages when settings change")
	cmd.Flags().Bool("auto-create-tasks", false, "create tasks for pre-selected messages")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		limit int
		prune int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously saved settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, appConfig, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("prune") {
				removed, err := a.storage.PruneSettingsHistory(ctx, prune)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Removed %d old revisions", removed)))
				return nil
			}

			revisions, err := a.storage.SettingsHistory(ctx, limit)
			if err != nil {
				return err
			}
			if len(revisions) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No settings saved yet"))
				return nil
			}
			for _, rev := range revisions {
				fmt.Fprintf(out, "%s %s\n",
					cli.SubtleStyle.Render(fmt.Sprintf("#%d %s", rev.ID, rev.SavedAt.Format(time.RFC3339))),
					rev.Value)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "number of revisions to show")
	cmd.Flags().IntVar(&prune, "prune", 0, "keep only this many revisions")
	return cmd
}

func resetSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, appConfig, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Save(ctx, settings.DefaultSnapshot()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Settings reset to defaults"))
			return nil
		},
	}
}

func pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose active and pre-selected categories interactively",
		Long: `Open a checklist of every category. Tab switches between the active set
and the set proposed as tasks; Enter saves both.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, appConfig, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			defs := a.classifier.Registry().Categories()
			res, err := tui.RunPicker(ctx, defs, a.store.Get(), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Saved {
				fmt.Fprintln(out, cli.FormatInfo("No changes saved"))
				return nil
			}

			a.broadcaster.AddChangeListener(notifyListener(out))
			if _, err := a.requestChange(ctx, settings.ActiveCategoriesChange{IDs: res.Active, All: res.Active == nil}); err != nil {
				return err
			}
			snap, err := a.requestChange(ctx, settings.TaskPreselectedChange{IDs: res.Preselected})
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess("Saved category selection"))
			fmt.Fprintln(out, cli.RenderSnapshot(snap))
			return nil
		},
	}
}

// runChange applies change through the broadcaster and prints the result.
func runChange(cmd *cobra.Command, change settings.Change) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, appConfig, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	a.broadcaster.AddChangeListener(notifyListener(out))

	snap, err := a.requestChange(ctx, change)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess("Updated "+change.Kind().String()))
	fmt.Fprintln(out, cli.RenderSnapshot(snap))
	return nil
}

// notifyListener prints a notice for applied changes when the user enabled
// notifications.
func notifyListener(w io.Writer) settings.Listener {
	return settings.ListenerFunc(func(_ context.Context, kind settings.Kind, _ settings.Change, snap settings.Snapshot) error {
		if !snap.Preferences.ShowNotifications {
			return nil
		}
		_, err := fmt.Fprintln(w, cli.FormatInfo("Settings changed: "+kind.String()))
		slog.Debug("Printed settings notification", "kind", kind.String())
		return err
	})
}

func changedBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil
	}
	return &v
}

func changedInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil
	}
	return &v
}
