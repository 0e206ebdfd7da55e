package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

const barWidth = 30

// RenderSummary renders the outcome of a batch run.
func RenderSummary(summary engine.Summary) string {
	var b strings.Builder

	b.WriteString(KeyValue("Messages", fmt.Sprintf("%d", summary.Total)) + "\n")
	b.WriteString(KeyValue("Categorized", fmt.Sprintf("%d", summary.Categorized)) + "\n")
	b.WriteString(KeyValue("Proposed as tasks", fmt.Sprintf("%d", summary.Stats.PreselectedForTasks)) + "\n")
	b.WriteString(KeyValue("High confidence", fmt.Sprintf("%d", summary.Stats.HighConfidence)) + "\n")
	b.WriteString(KeyValue("Absolute matches", fmt.Sprintf("%d", summary.Stats.AbsoluteMatches)) + "\n")
	b.WriteString(KeyValue("Avg confidence", fmt.Sprintf("%.2f", summary.Stats.AverageConfidence)) + "\n")
	b.WriteString(KeyValue("Avg score", fmt.Sprintf("%.1f", summary.Stats.AverageScore)) + "\n")
	if summary.Stats.Errors > 0 {
		b.WriteString(KeyValue("Errors", ErrorStyle.Render(fmt.Sprintf("%d", summary.Stats.Errors))) + "\n")
	}

	b.WriteString("\n" + BoldStyle.Render("By category") + "\n")
	b.WriteString(renderBuckets(summary.SortedBreakdown()))

	b.WriteString("\n" + BoldStyle.Render("Confidence") + "\n")
	b.WriteString(renderBuckets(summary.ConfidenceHistogram))

	b.WriteString("\n" + BoldStyle.Render("Score") + "\n")
	b.WriteString(renderBuckets(summary.ScoreHistogram))

	return RenderBox(ChartIcon+" Classification summary", strings.TrimRight(b.String(), "\n"))
}

func renderBuckets(buckets []engine.Bucket) string {
	peak := 0
	for _, bucket := range buckets {
		peak = max(peak, bucket.Count)
	}

	var b strings.Builder
	for _, bucket := range buckets {
		width := 0
		if peak > 0 {
			width = bucket.Count * barWidth / peak
		}
		if bucket.Count > 0 && width == 0 {
			width = 1
		}
		bar := BarStyle.Render(strings.Repeat("█", width))
		b.WriteString(KeyValue(bucket.Label, fmt.Sprintf("%s %d", bar, bucket.Count)) + "\n")
	}
	return b.String()
}

// RenderMessages lists each message with its category, score and confidence.
func RenderMessages(messages []model.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		c := msg.Classification
		if c == nil {
			continue
		}

		marker := " "
		if c.IsPreselectedForTasks {
			marker = TaskIcon
		}
		category := c.CategoryID
		if c.Failed() {
			category = ErrorStyle.Render(category + " (failed)")
		}

		fmt.Fprintf(&b, "%s %s %s %s\n",
			marker,
			LabelStyle.Render(category),
			SubtleStyle.Render(fmt.Sprintf("%4d %.2f", c.Score, c.Confidence)),
			truncate(msg.Subject, 60))
	}
	return b.String()
}

// RenderCategories lists the registry categories and their state in snap.
func RenderCategories(defs []model.CategoryDefinition, snap settings.Snapshot) string {
	active := make(map[string]bool)
	if snap.ActiveCategories == nil {
		for _, def := range defs {
			active[def.ID] = true
		}
	} else {
		for _, id := range snap.ActiveCategories {
			active[id] = true
		}
	}

	var b strings.Builder
	for _, def := range defs {
		state := SubtleStyle.Render("inactive")
		if active[def.ID] {
			state = SuccessStyle.Render("active")
		}
		if snap.IsPreselected(def.ID) {
			state += " " + TaskIcon
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			def.Icon,
			LabelStyle.Render(BoldStyle.Render(def.ID)),
			LabelStyle.Render(state),
			SubtleStyle.Render(def.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderSnapshot renders every settings field.
func RenderSnapshot(snap settings.Snapshot) string {
	active := "all"
	if snap.ActiveCategories != nil {
		active = joinOrNone(snap.ActiveCategories)
	}

	rows := []string{
		KeyValue("Active categories", active),
		KeyValue("Proposed as tasks", joinOrNone(snap.TaskPreselectedCategories)),
		KeyValue("Excluded domains", joinOrNone(snap.CategoryExclusions.Domains)),
		KeyValue("Excluded emails", joinOrNone(snap.CategoryExclusions.Emails)),
		KeyValue("Chunk size", fmt.Sprintf("%d", snap.ScanSettings.ChunkSize)),
		KeyValue("Max messages", limitOrNone(snap.ScanSettings.MaxMessages)),
		KeyValue("Include read", yesNo(snap.ScanSettings.IncludeRead)),
		KeyValue("Auto resync", yesNo(snap.AutomationSettings.AutoResync)),
		KeyValue("Auto create tasks", yesNo(snap.AutomationSettings.AutoCreateTasks)),
		KeyValue("Exclude spam", yesNo(snap.Preferences.ExcludeSpam)),
		KeyValue("Detect CC", yesNo(snap.Preferences.DetectCC)),
		KeyValue("Notifications", yesNo(snap.Preferences.ShowNotifications)),
	}
	return RenderBox("Settings", strings.Join(rows, "\n"))
}

// SummaryPublisher prints each run's summary to a writer.
type SummaryPublisher struct {
	Writer io.Writer
}

// PublishResults implements engine.Publisher.
func (p SummaryPublisher) PublishResults(_ context.Context, summary engine.Summary, _ []model.Message) error {
	if _, err := fmt.Fprintln(p.Writer, RenderSummary(summary)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func joinOrNone(list []string) string {
	if len(list) == 0 {
		return SubtleStyle.Render("none")
	}
	return strings.Join(list, ", ")
}

func limitOrNone(n int) string {
	if n <= 0 {
		return SubtleStyle.Render("unlimited")
	}
	return fmt.Sprintf("%d", n)
}

func yesNo(v bool) string {
	if v {
		return SuccessStyle.Render("yes")
	}
	return SubtleStyle.Render("no")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
