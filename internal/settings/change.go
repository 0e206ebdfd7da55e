package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownChangeKind is returned when a change tag is not part of the vocabulary.
var ErrUnknownChangeKind = errors.New("unknown settings change kind")

// Kind identifies which part of the snapshot a change touches.
type Kind int

// Change kinds.
const (
	KindTaskPreselectedCategories Kind = iota + 1
	KindActiveCategories
	KindCategoryExclusions
	KindScanSettings
	KindAutomationSettings
	KindPreferences
)

var kindNames = map[Kind]string{
	KindTaskPreselectedCategories: "taskPreselectedCategories",
	KindActiveCategories:          "activeCategories",
	KindCategoryExclusions:        "categoryExclusions",
	KindScanSettings:              "scanSettings",
	KindAutomationSettings:        "automationSettings",
	KindPreferences:               "preferences",
}

// String returns the wire tag of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a wire tag back to its Kind.
func ParseKind(tag string) (Kind, error) {
	for k, name := range kindNames {
		if name == tag {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChangeKind, tag)
}

// Change is a typed mutation of one snapshot field. The set of
// implementations is closed: only this package can add one.
type Change interface {
	Kind() Kind
	apply(*Snapshot)
}

// ActiveCategoriesChange replaces the active set. All re-enables every category.
type ActiveCategoriesChange struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// Kind implements Change.
func (ActiveCategoriesChange) Kind() Kind { return KindActiveCategories }

func (c ActiveCategoriesChange) apply(s *Snapshot) {
	if c.All {
		s.ActiveCategories = nil
		return
	}
	ids := cloneList(c.IDs)
	if ids == nil {
		ids = []string{}
	}
	s.ActiveCategories = ids
}

// TaskPreselectedChange replaces the list of categories proposed as tasks.
type TaskPreselectedChange struct {
	IDs []string `json:"ids"`
}

// Kind implements Change.
func (TaskPreselectedChange) Kind() Kind { return KindTaskPreselectedCategories }

func (c TaskPreselectedChange) apply(s *Snapshot) {
	ids := cloneList(c.IDs)
	if ids == nil {
		ids = []string{}
	}
	s.TaskPreselectedCategories = ids
}

// ExclusionsChange merges into the exclusions. Nil fields are left untouched.
type ExclusionsChange struct {
	Domains *[]string `json:"domains,omitempty"`
	Emails  *[]string `json:"emails,omitempty"`
}

// Kind implements Change.
func (ExclusionsChange) Kind() Kind { return KindCategoryExclusions }

func (c ExclusionsChange) apply(s *Snapshot) {
	if c.Domains != nil {
		s.CategoryExclusions.Domains = nonNil(cloneList(*c.Domains))
	}
	if c.Emails != nil {
		s.CategoryExclusions.Emails = nonNil(cloneList(*c.Emails))
	}
}

// ScanSettingsChange merges into the scan settings.
type ScanSettingsChange struct {
	ChunkSize   *int  `json:"chunkSize,omitempty"`
	MaxMessages *int  `json:"maxMessages,omitempty"`
	IncludeRead *bool `json:"includeRead,omitempty"`
}

// Kind implements Change.
func (ScanSettingsChange) Kind() Kind { return KindScanSettings }

func (c ScanSettingsChange) apply(s *Snapshot) {
	setIf(&s.ScanSettings.ChunkSize, c.ChunkSize)
	setIf(&s.ScanSettings.MaxMessages, c.MaxMessages)
	setIf(&s.ScanSettings.IncludeRead, c.IncludeRead)
}

// AutomationChange merges into the automation settings.
type AutomationChange struct {
	AutoResync      *bool `json:"autoResync,omitempty"`
	AutoCreateTasks *bool `json:"autoCreateTasks,omitempty"`
}

// Kind implements Change.
func (AutomationChange) Kind() Kind { return KindAutomationSettings }

func (c AutomationChange) apply(s *Snapshot) {
	setIf(&s.AutomationSettings.AutoResync, c.AutoResync)
	setIf(&s.AutomationSettings.AutoCreateTasks, c.AutoCreateTasks)
}

// PreferencesChange merges into the preferences.
type PreferencesChange struct {
	ExcludeSpam       *bool `json:"excludeSpam,omitempty"`
	DetectCC          *bool `json:"detectCC,omitempty"`
	ShowNotifications *bool `json:"showNotifications,omitempty"`
}

// Kind implements Change.
func (PreferencesChange) Kind() Kind { return KindPreferences }

func (c PreferencesChange) apply(s *Snapshot) {
	setIf(&s.Preferences.ExcludeSpam, c.ExcludeSpam)
	setIf(&s.Preferences.DetectCC, c.DetectCC)
	setIf(&s.Preferences.ShowNotifications, c.ShowNotifications)
}

// ParseChange decodes a change received from an external surface. List
// kinds accept either a bare JSON array or the change object; object kinds
// accept a partial object.
func ParseChange(tag string, raw json.RawMessage) (Change, error) {
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindTaskPreselectedCategories:
		var c TaskPreselectedChange
		if err := decodeList(raw, &c.IDs, &c); err != nil {
			return nil, err
		}
		return c, nil
	case KindActiveCategories:
		var c ActiveCategoriesChange
		if string(bytes.TrimSpace(raw)) == "null" {
			return ActiveCategoriesChange{All: true}, nil
		}
		if err := decodeList(raw, &c.IDs, &c); err != nil {
			return nil, err
		}
		return c, nil
	case KindCategoryExclusions:
		return decodeObject[ExclusionsChange](raw)
	case KindScanSettings:
		return decodeObject[ScanSettingsChange](raw)
	case KindAutomationSettings:
		return decodeObject[AutomationChange](raw)
	case KindPreferences:
		return decodeObject[PreferencesChange](raw)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownChangeKind, tag)
}

func decodeObject[T Change](raw json.RawMessage) (Change, error) {
	var c T
	if err := decode(raw, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// ChangeRequest is a queued change. It is consumed exactly once.
type ChangeRequest struct {
	Timestamp        time.Time
	Change           Change
	ID               uuid.UUID
	NotifyDependents bool
}

// NewChangeRequest wraps a change that notifies dependents when applied.
func NewChangeRequest(change Change) ChangeRequest {
	return ChangeRequest{
		ID:               uuid.New(),
		Change:           change,
		NotifyDependents: true,
		Timestamp:        time.Now(),
	}
}

// Silent returns a copy of the request that does not notify dependents.
func (r ChangeRequest) Silent() ChangeRequest {
	r.NotifyDependents = false
	return r
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode settings change: %w", err)
	}
	return nil
}

func decodeList(raw json.RawMessage, list *[]string, obj any) error {
	if err := json.Unmarshal(raw, list); err == nil {
		return nil
	}
	return decode(raw, obj)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
