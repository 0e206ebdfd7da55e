package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/inbox-triage/internal/model"
)

func TestScorer_Score(t *testing.T) {
	rules := model.KeywordRuleSet{
		Absolute:  []string{"alpha"},
		Strong:    []string{"beta", "gamma"},
		Weak:      []string{"delta"},
		Exclusion: []string{"omega"},
	}

	tests := []struct {
		name         string
		content      model.NormalizedContent
		categoryID   string
		wantTotal    int
		wantAbsolute bool
		wantTiers    []model.KeywordTier
	}{
		{
			name:         "absolute in subject",
			content:      model.NormalizedContent{Text: "alpha", SubjectText: "alpha"},
			wantTotal:    150,
			wantAbsolute: true,
			wantTiers:    []model.KeywordTier{model.TierAbsolute, model.TierSubject},
		},
		{
			name:      "two strong keywords earn the multiple bonus once",
			content:   model.NormalizedContent{Text: "beta gamma beta"},
			wantTotal: 110,
			wantTiers: []model.KeywordTier{model.TierStrong, model.TierStrong, model.TierMultipleMatch},
		},
		{
			name:      "strong in subject",
			content:   model.NormalizedContent{Text: "beta delta", SubjectText: "beta"},
			wantTotal: 75,
			wantTiers: []model.KeywordTier{model.TierStrong, model.TierSubject, model.TierWeak},
		},
		{
			name:      "exclusion outweighs matches and clamps at zero",
			content:   model.NormalizedContent{Text: "omega delta"},
			wantTotal: 0,
			wantTiers: []model.KeywordTier{model.TierExclusion, model.TierWeak},
		},
		{
			name:       "base bonus applies without keywords",
			content:    model.NormalizedContent{Text: "nothing relevant"},
			categoryID: model.CategoryTasks,
			wantTotal:  10,
			wantTiers:  []model.KeywordTier{model.TierBase},
		},
		{
			name:      "no match",
			content:   model.NormalizedContent{},
			wantTotal: 0,
		},
	}

	scorer := NewScorer(DefaultBaseBonuses())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.categoryID
			if id == "" {
				id = "custom"
			}
			result := scorer.Score(tt.content, rules, id)

			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantAbsolute, result.HasAbsoluteMatch)

			var tiers []model.KeywordTier
			for _, m := range result.Matches {
				tiers = append(tiers, m.Tier)
			}
			assert.Equal(t, tt.wantTiers, tiers)
		})
	}
}

func TestScorer_FoldsUnfoldedKeywords(t *testing.T) {
	scorer := NewScorer(nil)
	result := scorer.Score(
		model.NormalizedContent{Text: Fold("Réunion d'équipe")},
		model.KeywordRuleSet{Strong: []string{"RÉUNION"}},
		"custom",
	)
	assert.Equal(t, 40, result.Total)
}

func TestScorer_NeverNegative(t *testing.T) {
	registry := DefaultRegistry()
	scorer := NewScorer(DefaultBaseBonuses())

	// Every exclusion keyword of every category, nothing else.
	var text string
	for _, id := range registry.IDs() {
		rules, ok := registry.RuleSet(id)
		if !ok {
			continue
		}
		for _, kw := range rules.Exclusion {
			text += kw + " "
		}
	}
	content := model.NormalizedContent{Text: text}

	for _, id := range registry.IDs() {
		rules, ok := registry.RuleSet(id)
		if !ok {
			continue
		}
		result := scorer.Score(content, rules, id)
		assert.GreaterOrEqual(t, result.Total, 0, id)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		result model.ScoreResult
		want   float64
	}{
		{model.ScoreResult{Total: 0, HasAbsoluteMatch: true}, 0.95},
		{model.ScoreResult{Total: 250}, 0.90},
		{model.ScoreResult{Total: 200}, 0.90},
		{model.ScoreResult{Total: 199}, 0.85},
		{model.ScoreResult{Total: 150}, 0.85},
		{model.ScoreResult{Total: 100}, 0.80},
		{model.ScoreResult{Total: 80}, 0.75},
		{model.ScoreResult{Total: 60}, 0.70},
		{model.ScoreResult{Total: 40}, 0.60},
		{model.ScoreResult{Total: 39}, 0.50},
		{model.ScoreResult{Total: 0}, 0.50},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Confidence(tt.result), 1e-9, "total %d", tt.result.Total)
	}
}
