package classification

import (
	"strings"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Score weights.
const (
	exclusionPenalty     = -50
	absoluteWeight       = 100
	absoluteSubjectBonus = 50
	strongWeight         = 40
	strongSubjectBonus   = 20
	multipleStrongBonus  = 30
	weakWeight           = 15
)

// Scorer computes keyword scores for a single category.
type Scorer struct {
	baseBonus map[string]int
}

// NewScorer creates a scorer with per-category base bonuses. A nil map means
// no category receives a bonus.
func NewScorer(baseBonus map[string]int) *Scorer {
	bonuses := make(map[string]int, len(baseBonus))
	for id, v := range baseBonus {
		bonuses[id] = v
	}
	return &Scorer{baseBonus: bonuses}
}

// Score matches content against one rule set. Keywords match as contiguous
// substrings of the folded text. The total is clamped at zero.
func (s *Scorer) Score(content model.NormalizedContent, rules model.KeywordRuleSet, categoryID string) model.ScoreResult {
	var (
		result model.ScoreResult
		sum    int
	)

	add := func(keyword string, tier model.KeywordTier, contribution int) {
		result.Matches = append(result.Matches, model.KeywordMatch{
			Keyword:      keyword,
			Tier:         tier,
			Contribution: contribution,
		})
		sum += contribution
	}

	if bonus, ok := s.baseBonus[categoryID]; ok && bonus != 0 {
		add(categoryID, model.TierBase, bonus)
	}

	for _, kw := range rules.Exclusion {
		if contains(content.Text, kw) {
			add(kw, model.TierExclusion, exclusionPenalty)
		}
	}

	for _, kw := range rules.Absolute {
		if !contains(content.Text, kw) {
			continue
		}
		result.HasAbsoluteMatch = true
		add(kw, model.TierAbsolute, absoluteWeight)
		if contains(content.SubjectText, kw) {
			add(kw, model.TierSubject, absoluteSubjectBonus)
		}
	}

	strongHits := make(map[string]struct{})
	for _, kw := range rules.Strong {
		if !contains(content.Text, kw) {
			continue
		}
		strongHits[kw] = struct{}{}
		add(kw, model.TierStrong, strongWeight)
		if contains(content.SubjectText, kw) {
			add(kw, model.TierSubject, strongSubjectBonus)
		}
	}
	if len(strongHits) >= 2 {
		add("", model.TierMultipleMatch, multipleStrongBonus)
	}

	for _, kw := range rules.Weak {
		if contains(content.Text, kw) {
			add(kw, model.TierWeak, weakWeight)
		}
	}

	result.Total = max(0, sum)
	return result
}

// Confidence maps a score to a coarse confidence band.
func Confidence(r model.ScoreResult) float64 {
	if r.HasAbsoluteMatch {
		return 0.95
	}
	switch {
	case r.Total >= 200:
		return 0.90
	case r.Total >= 150:
		return 0.85
	case r.Total >= 100:
		return 0.80
	case r.Total >= 80:
		return 0.75
	case r.Total >= 60:
		return 0.70
	case r.Total >= 40:
		return 0.60
	default:
		return 0.50
	}
}

// contains expects a folded haystack. Keywords from the registry are already
// folded; hand-built rule sets are folded on the fly.
func contains(haystack, keyword string) bool {
	if keyword == "" || haystack == "" {
		return false
	}
	if strings.Contains(haystack, keyword) {
		return true
	}
	folded := Fold(keyword)
	return folded != keyword && folded != "" && strings.Contains(haystack, folded)
}
