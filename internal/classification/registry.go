// Package classification scores mail messages against weighted keyword rules
// and picks the best matching category.
package classification

import (
	"fmt"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Registry is the static table of category definitions and keyword rules.
// It is built once and never mutated afterwards.
type Registry struct {
	byID  map[string]model.CategoryDefinition
	rules map[string]model.KeywordRuleSet
	order []string
}

// NewRegistry builds a registry from category definitions and keyword rules.
// Keywords are folded and de-duplicated per tier.
func NewRegistry(defs []model.CategoryDefinition, rules map[string]model.KeywordRuleSet) (*Registry, error) {
	r := &Registry{
		byID:  make(map[string]model.CategoryDefinition, len(defs)),
		rules: make(map[string]model.KeywordRuleSet, len(rules)),
		order: make([]string, 0, len(defs)),
	}

	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("category definition without id")
		}
		if _, exists := r.byID[def.ID]; exists {
			return nil, fmt.Errorf("duplicate category %q", def.ID)
		}
		r.byID[def.ID] = def
		r.order = append(r.order, def.ID)
	}

	for id, set := range rules {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("rules for unknown category %q", id)
		}
		r.rules[id] = model.KeywordRuleSet{
			Absolute:  foldKeywords(set.Absolute),
			Strong:    foldKeywords(set.Strong),
			Weak:      foldKeywords(set.Weak),
			Exclusion: foldKeywords(set.Exclusion),
		}
	}

	return r, nil
}

// DefaultRegistry returns the registry holding the built-in categories.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultCategories(), DefaultRuleSets())
	if err != nil {
		// The built-in tables are static; a failure here is a programming error.
		panic(fmt.Sprintf("invalid default registry: %v", err))
	}
	return r
}

// Category returns the definition for id.
func (r *Registry) Category(id string) (model.CategoryDefinition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// RuleSet returns a copy of the keyword rules for id. Categories without
// keyword rules (cc, other) report false.
func (r *Registry) RuleSet(id string) (model.KeywordRuleSet, bool) {
	set, ok := r.rules[id]
	if !ok {
		return model.KeywordRuleSet{}, false
	}
	return set.Clone(), true
}

// Categories returns all definitions in registry order.
func (r *Registry) Categories() []model.CategoryDefinition {
	defs := make([]model.CategoryDefinition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.byID[id])
	}
	return defs
}

// IDs returns every registered category id in registry order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// ActiveCategoryIDs resolves the configured active set. A nil slice means all
// categories are active; otherwise the configured ids are returned in the
// configured order with unknown and repeated ids dropped.
func (r *Registry) ActiveCategoryIDs(active []string) []string {
	if active == nil {
		return r.IDs()
	}

	ids := make([]string, 0, len(active))
	seen := make(map[string]struct{}, len(active))
	for _, id := range active {
		if _, ok := r.byID[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func foldKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		folded := Fold(kw)
		if folded == "" {
			continue
		}
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	return out
}
