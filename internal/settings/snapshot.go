// Package settings holds the live classification settings, applies change
// requests one at a time and broadcasts applied changes to listeners.
package settings

// Exclusions lists senders that are never classified.
type Exclusions struct {
	Domains []string `json:"domains"`
	Emails  []string `json:"emails"`
}

// ScanSettings tunes batch scans.
type ScanSettings struct {
	ChunkSize   int  `json:"chunkSize"`
	MaxMessages int  `json:"maxMessages"`
	IncludeRead bool `json:"includeRead"`
}

// AutomationSettings controls what happens after a settings change.
type AutomationSettings struct {
	AutoResync      bool `json:"autoResync"`
	AutoCreateTasks bool `json:"autoCreateTasks"`
}

// Preferences holds the user's filter preferences.
type Preferences struct {
	ExcludeSpam       bool `json:"excludeSpam"`
	DetectCC          bool `json:"detectCC"`
	ShowNotifications bool `json:"showNotifications"`
}

// Snapshot is the full settings record. ActiveCategories is nil when every
// category is active.
type Snapshot struct {
	ActiveCategories          []string           `json:"activeCategories"`
	TaskPreselectedCategories []string           `json:"taskPreselectedCategories"`
	CategoryExclusions        Exclusions         `json:"categoryExclusions"`
	ScanSettings              ScanSettings       `json:"scanSettings"`
	AutomationSettings        AutomationSettings `json:"automationSettings"`
	Preferences               Preferences        `json:"preferences"`
}

// DefaultSnapshot returns the settings used when nothing was persisted.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		ActiveCategories:          nil,
		TaskPreselectedCategories: []string{},
		CategoryExclusions: Exclusions{
			Domains: []string{},
			Emails:  []string{},
		},
		ScanSettings: ScanSettings{
			ChunkSize:   25,
			IncludeRead: true,
		},
		AutomationSettings: AutomationSettings{
			AutoResync: true,
		},
		Preferences: Preferences{
			ExcludeSpam:       true,
			DetectCC:          true,
			ShowNotifications: true,
		},
	}
}

// Clone returns a deep copy. A nil ActiveCategories stays nil.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.ActiveCategories = cloneList(s.ActiveCategories)
	out.TaskPreselectedCategories = cloneList(s.TaskPreselectedCategories)
	out.CategoryExclusions = Exclusions{
		Domains: cloneList(s.CategoryExclusions.Domains),
		Emails:  cloneList(s.CategoryExclusions.Emails),
	}
	return out
}

// IsPreselected reports whether categoryID is pre-selected for tasks.
func (s Snapshot) IsPreselected(categoryID string) bool {
	for _, id := range s.TaskPreselectedCategories {
		if id == categoryID {
			return true
		}
	}
	return false
}

// normalize replaces nil lists that must never be nil after a load.
func (s *Snapshot) normalize() {
	if s.TaskPreselectedCategories == nil {
		s.TaskPreselectedCategories = []string{}
	}
	if s.CategoryExclusions.Domains == nil {
		s.CategoryExclusions.Domains = []string{}
	}
	if s.CategoryExclusions.Emails == nil {
		s.CategoryExclusions.Emails = []string{}
	}
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
