package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// HighConfidenceThreshold is the confidence from which a result counts as
// high confidence.
const HighConfidenceThreshold = 0.8

// Stats aggregates the categorized results of a run.
type Stats struct {
	PreselectedForTasks int     `json:"preselectedForTasks"`
	HighConfidence      int     `json:"highConfidence"`
	AbsoluteMatches     int     `json:"absoluteMatches"`
	AverageConfidence   float64 `json:"averageConfidence"`
	AverageScore        float64 `json:"averageScore"`
	Errors              int     `json:"errors"`
}

// Bucket is one histogram bin.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the aggregate outcome of a batch run.
type Summary struct {
	StartedAt           time.Time      `json:"startedAt"`
	Breakdown           map[string]int `json:"breakdown"`
	ConfidenceHistogram []Bucket       `json:"confidenceHistogram"`
	ScoreHistogram      []Bucket       `json:"scoreHistogram"`
	Stats               Stats          `json:"stats"`
	Total               int            `json:"total"`
	Categorized         int            `json:"categorized"`
	Duration            time.Duration  `json:"duration"`
	RunID               uuid.UUID      `json:"runId"`
}

type bin struct {
	label string
	lower float64
}

// Lower bounds, descending.
var (
	confidenceBins = []bin{
		{"0.90-1.00", 0.90},
		{"0.80-0.89", 0.80},
		{"0.70-0.79", 0.70},
		{"0.60-0.69", 0.60},
		{"0.50-0.59", 0.50},
		{"0.00-0.49", 0},
	}
	scoreBins = []bin{
		{"200+", 200},
		{"150-199", 150},
		{"100-149", 100},
		{"60-99", 60},
		{"30-59", 30},
		{"0-29", 0},
	}
)

// Summarize aggregates classification results. A result is categorized when
// it landed anywhere but "other"; averages are taken over categorized
// results only.
func Summarize(results []model.Classification) Summary {
	summary := Summary{
		Total:               len(results),
		Breakdown:           make(map[string]int),
		ConfidenceHistogram: newHistogram(confidenceBins),
		ScoreHistogram:      newHistogram(scoreBins),
	}

	var confSum, scoreSum float64
	for _, r := range results {
		summary.Breakdown[r.CategoryID]++

		if r.Failed() {
			summary.Stats.Errors++
			continue
		}
		if r.IsPreselectedForTasks {
			summary.Stats.PreselectedForTasks++
		}
		if r.CategoryID == model.CategoryOther {
			continue
		}

		summary.Categorized++
		confSum += r.Confidence
		scoreSum += float64(r.Score)
		if r.Confidence >= HighConfidenceThreshold {
			summary.Stats.HighConfidence++
		}
		if r.Flags.HasAbsoluteMatch {
			summary.Stats.AbsoluteMatches++
		}
		observe(summary.ConfidenceHistogram, confidenceBins, r.Confidence)
		observe(summary.ScoreHistogram, scoreBins, float64(r.Score))
	}

	if summary.Categorized > 0 {
		summary.Stats.AverageConfidence = confSum / float64(summary.Categorized)
		summary.Stats.AverageScore = scoreSum / float64(summary.Categorized)
	}

	return summary
}

// SortedBreakdown returns the breakdown ordered by count, then category id.
func (s Summary) SortedBreakdown() []Bucket {
	buckets := make([]Bucket, 0, len(s.Breakdown))
	for id, n := range s.Breakdown {
		buckets = append(buckets, Bucket{Label: id, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

func newHistogram(bins []bin) []Bucket {
	buckets := make([]Bucket, len(bins))
	for i, b := range bins {
		buckets[i].Label = b.label
	}
	return buckets
}

func observe(buckets []Bucket, bins []bin, v float64) {
	for i, b := range bins {
		if v >= b.lower {
			buckets[i].Count++
			return
		}
	}
}
