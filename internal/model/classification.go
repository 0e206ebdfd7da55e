// Package model defines the core domain models used throughout the application.
package model

// NormalizedContent is the searchable form of a single message.
type NormalizedContent struct {
	Text        string
	SubjectText string
	Domain      string
}

// KeywordMatch records one contribution to a category score.
type KeywordMatch struct {
	Keyword      string      `json:"keyword"`
	Tier         KeywordTier `json:"tier"`
	Contribution int         `json:"contribution"`
}

// ScoreResult is the outcome of scoring one message against one category.
type ScoreResult struct {
	Matches          []KeywordMatch `json:"matches"`
	Total            int            `json:"total"`
	HasAbsoluteMatch bool           `json:"hasAbsoluteMatch"`
}

// ClassificationFlags carries the filter outcomes of a classification.
type ClassificationFlags struct {
	IsSpam           bool `json:"isSpam"`
	IsCC             bool `json:"isCC"`
	IsExcluded       bool `json:"isExcluded"`
	HasAbsoluteMatch bool `json:"hasAbsoluteMatch"`
}

// Classification is the result attached to a message after it passes
// through the classification pipeline.
type Classification struct {
	CategoryID            string              `json:"categoryId"`
	Error                 string              `json:"error,omitempty"`
	Matches               []KeywordMatch      `json:"matches,omitempty"`
	Flags                 ClassificationFlags `json:"flags"`
	Score                 int                 `json:"score"`
	Confidence            float64             `json:"confidence"`
	IsPreselectedForTasks bool                `json:"isPreselectedForTasks"`
}

// Failed reports whether the classification was forced because of an error.
func (c Classification) Failed() bool {
	return c.Error != ""
}
