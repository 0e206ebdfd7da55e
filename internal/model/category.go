package model

// Well-known category identifiers.
const (
	CategoryNewsletters   = "newsletters"
	CategorySecurity      = "security"
	CategoryTasks         = "tasks"
	CategoryFinance       = "finance"
	CategoryMeetings      = "meetings"
	CategoryCommercial    = "commercial"
	CategorySupport       = "support"
	CategoryProject       = "project"
	CategoryNotifications = "notifications"
	CategoryCC            = "cc"
	CategoryOther         = "other"
)

// Outcome identifiers produced by the pipeline filters. They are not
// registered categories and carry no keyword rules.
const (
	OutcomeSpam     = "spam"
	OutcomeExcluded = "excluded"
)

// CategoryDefinition describes one classification category.
type CategoryDefinition struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Priority    int    `json:"priority"` // Higher priority wins ties
}

// KeywordTier identifies which list of a rule set produced a match.
type KeywordTier string

// Keyword tiers. Base and bonus tiers mark contributions that do not come
// from a single keyword.
const (
	TierAbsolute      KeywordTier = "absolute"
	TierStrong        KeywordTier = "strong"
	TierWeak          KeywordTier = "weak"
	TierExclusion     KeywordTier = "exclusion"
	TierSubject       KeywordTier = "subject"
	TierBase          KeywordTier = "base"
	TierMultipleMatch KeywordTier = "multiple_strong"
)

// KeywordRuleSet holds the keyword tiers for a single category.
type KeywordRuleSet struct {
	Absolute  []string `json:"absolute"`
	Strong    []string `json:"strong"`
	Weak      []string `json:"weak"`
	Exclusion []string `json:"exclusion"`
}

// Clone returns a deep copy of the rule set.
func (r KeywordRuleSet) Clone() KeywordRuleSet {
	return KeywordRuleSet{
		Absolute:  append([]string(nil), r.Absolute...),
		Strong:    append([]string(nil), r.Strong...),
		Weak:      append([]string(nil), r.Weak...),
		Exclusion: append([]string(nil), r.Exclusion...),
	}
}
