package classification

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

// Selection thresholds and fixed filter results.
const (
	minCandidateScore      = 30
	minCandidateConfidence = 0.5
	newsletterThreshold    = 100
	ccScore                = 100
	filterConfidence       = 0.95
)

// DefaultJunkFolders are folder names treated as junk in addition to the
// configured ones. Matching is case-insensitive.
var DefaultJunkFolders = []string{"junkemail", "junk", "spam", "junk email", "courrier indesirable"}

// Options configures a Classifier.
type Options struct {
	// BaseBonuses overrides DefaultBaseBonuses when non-nil.
	BaseBonuses map[string]int
	// UserAddress is the mailbox owner, used by the CC check.
	UserAddress string
	// JunkFolders lists extra folder ids or names considered junk.
	JunkFolders []string
}

// Classifier runs the classification pipeline for single messages. It holds
// no mutable state and is safe for concurrent use.
type Classifier struct {
	registry    *Registry
	scorer      *Scorer
	userAddress string
	junkFolders map[string]struct{}
}

// NewClassifier creates a classifier over registry.
func NewClassifier(registry *Registry, opts Options) *Classifier {
	bonuses := opts.BaseBonuses
	if bonuses == nil {
		bonuses = DefaultBaseBonuses()
	}

	junk := make(map[string]struct{}, len(DefaultJunkFolders)+len(opts.JunkFolders))
	for _, list := range [][]string{DefaultJunkFolders, opts.JunkFolders} {
		for _, f := range list {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				junk[f] = struct{}{}
			}
		}
	}

	return &Classifier{
		registry:    registry,
		scorer:      NewScorer(bonuses),
		userAddress: strings.TrimSpace(opts.UserAddress),
		junkFolders: junk,
	}
}

// Registry returns the registry the classifier scores against.
func (c *Classifier) Registry() *Registry {
	return c.registry
}

type candidate struct {
	id       string
	result   model.ScoreResult
	priority int
	conf     float64
}

// Classify assigns msg to exactly one category. The checks run in a fixed
// order: newsletter, spam, exclusion, cc, then keyword scoring. A newsletter
// that has the user in CC is therefore reported as a newsletter.
func (c *Classifier) Classify(msg model.Message, snap settings.Snapshot) model.Classification {
	content := Normalize(msg)

	if result, ok := c.newsletter(content); ok {
		return c.finish(snap, model.Classification{
			CategoryID: model.CategoryNewsletters,
			Matches:    result.Matches,
			Score:      result.Total,
			Confidence: Confidence(result),
			Flags:      model.ClassificationFlags{HasAbsoluteMatch: result.HasAbsoluteMatch},
		})
	}

	if snap.Preferences.ExcludeSpam && c.isJunk(msg.ParentFolderID) {
		return c.finish(snap, model.Classification{
			CategoryID: model.OutcomeSpam,
			Confidence: filterConfidence,
			Flags:      model.ClassificationFlags{IsSpam: true},
		})
	}

	if isExcluded(msg.From.Address, content.Domain, snap.CategoryExclusions) {
		return c.finish(snap, model.Classification{
			CategoryID: model.OutcomeExcluded,
			Confidence: filterConfidence,
			Flags:      model.ClassificationFlags{IsExcluded: true},
		})
	}

	if snap.Preferences.DetectCC && c.isCCOnly(msg) {
		return c.finish(snap, model.Classification{
			CategoryID: model.CategoryCC,
			Score:      ccScore,
			Confidence: filterConfidence,
			Flags:      model.ClassificationFlags{IsCC: true},
		})
	}

	candidates := c.score(content, snap)
	if len(candidates) == 0 {
		return c.finish(snap, model.Classification{CategoryID: model.CategoryOther})
	}

	best := candidates[0]
	return c.finish(snap, model.Classification{
		CategoryID: best.id,
		Matches:    best.result.Matches,
		Score:      best.result.Total,
		Confidence: best.conf,
		Flags:      model.ClassificationFlags{HasAbsoluteMatch: best.result.HasAbsoluteMatch},
	})
}

func (c *Classifier) finish(snap settings.Snapshot, result model.Classification) model.Classification {
	result.IsPreselectedForTasks = snap.IsPreselected(result.CategoryID)
	slog.Debug("Classified message",
		"category", result.CategoryID,
		"score", result.Score,
		"confidence", result.Confidence)
	return result
}

// newsletter scores the newsletter rules regardless of the active set.
func (c *Classifier) newsletter(content model.NormalizedContent) (model.ScoreResult, bool) {
	rules, ok := c.registry.RuleSet(model.CategoryNewsletters)
	if !ok {
		return model.ScoreResult{}, false
	}
	result := c.scorer.Score(content, rules, model.CategoryNewsletters)
	return result, result.HasAbsoluteMatch || result.Total >= newsletterThreshold
}

// score ranks the active categories that pass the selection thresholds.
func (c *Classifier) score(content model.NormalizedContent, snap settings.Snapshot) []candidate {
	var candidates []candidate

	for _, id := range c.registry.ActiveCategoryIDs(snap.ActiveCategories) {
		if id == model.CategoryNewsletters {
			continue
		}
		rules, ok := c.registry.RuleSet(id)
		if !ok {
			continue
		}

		result := c.scorer.Score(content, rules, id)
		conf := Confidence(result)
		if result.Total < minCandidateScore || conf < minCandidateConfidence {
			continue
		}

		def, _ := c.registry.Category(id)
		candidates = append(candidates, candidate{
			id:       id,
			result:   result,
			priority: def.Priority,
			conf:     conf,
		})
	}

	// Stable sort keeps active-set order for complete ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.result.HasAbsoluteMatch != b.result.HasAbsoluteMatch {
			return a.result.HasAbsoluteMatch
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.result.Total > b.result.Total
	})

	return candidates
}

func (c *Classifier) isJunk(folder string) bool {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if folder == "" {
		return false
	}
	_, ok := c.junkFolders[folder]
	return ok
}

// isCCOnly reports whether the user is copied on msg without being a
// primary recipient.
func (c *Classifier) isCCOnly(msg model.Message) bool {
	if c.userAddress == "" || len(msg.CcRecipients) == 0 {
		return false
	}
	return model.HasRecipient(msg.CcRecipients, c.userAddress) &&
		!model.HasRecipient(msg.ToRecipients, c.userAddress)
}

// isExcluded matches the sender against the exclusion lists. A domain entry
// also covers its subdomains.
func isExcluded(address, domain string, excl settings.Exclusions) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	if address != "" {
		for _, e := range excl.Emails {
			if strings.ToLower(strings.TrimSpace(e)) == address {
				return true
			}
		}
	}

	if domain == "" || domain == unknownDomain {
		return false
	}
	for _, d := range excl.Domains {
		d = strings.ToLower(strings.TrimLeft(strings.TrimSpace(d), "@."))
		if d == "" {
			continue
		}
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
