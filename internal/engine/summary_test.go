package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/inbox-triage/internal/model"
)

func TestSummarize(t *testing.T) {
	results := []model.Classification{
		{CategoryID: model.CategoryTasks, Score: 175, Confidence: 0.95, IsPreselectedForTasks: true,
			Flags: model.ClassificationFlags{HasAbsoluteMatch: true}},
		{CategoryID: model.CategoryFinance, Score: 45, Confidence: 0.60},
		{CategoryID: model.CategoryCC, Score: 100, Confidence: 0.95},
		{CategoryID: model.CategoryOther},
		{CategoryID: model.CategoryOther, Error: "classification failed: panic: boom"},
	}

	summary := Summarize(results)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 3, summary.Categorized)
	assert.Equal(t, map[string]int{
		model.CategoryTasks:   1,
		model.CategoryFinance: 1,
		model.CategoryCC:      1,
		model.CategoryOther:   2,
	}, summary.Breakdown)

	assert.Equal(t, Stats{
		PreselectedForTasks: 1,
		HighConfidence:      2,
		AbsoluteMatches:     1,
		AverageConfidence:   (0.95 + 0.60 + 0.95) / 3,
		AverageScore:        (175.0 + 45 + 100) / 3,
		Errors:              1,
	}, summary.Stats)

	assert.Equal(t, []Bucket{
		{"0.90-1.00", 2},
		{"0.80-0.89", 0},
		{"0.70-0.79", 0},
		{"0.60-0.69", 1},
		{"0.50-0.59", 0},
		{"0.00-0.49", 0},
	}, summary.ConfidenceHistogram)

	assert.Equal(t, []Bucket{
		{"200+", 0},
		{"150-199", 1},
		{"100-149", 1},
		{"60-99", 0},
		{"30-59", 1},
		{"0-29", 0},
	}, summary.ScoreHistogram)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Categorized)
	assert.Empty(t, summary.Breakdown)
	assert.Zero(t, summary.Stats.AverageScore)
	assert.Len(t, summary.ConfidenceHistogram, 6)
}

func TestSummary_SortedBreakdown(t *testing.T) {
	summary := Summary{Breakdown: map[string]int{
		"finance": 2,
		"tasks":   5,
		"cc":      2,
		"other":   1,
	}}

	assert.Equal(t, []Bucket{
		{"tasks", 5},
		{"cc", 2},
		{"finance", 2},
		{"other", 1},
	}, summary.SortedBreakdown())
}
