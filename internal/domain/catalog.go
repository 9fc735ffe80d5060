package domain

import (
	"slices"
	"strings"
)

// SuggestedTracker is a catalog template that can be quick-added by slug.
type SuggestedTracker struct {
	Slug     string      `json:"slug"`
	Name     string      `json:"name"`
	Type     TrackerType `json:"tracker_type"`
	Unit     string      `json:"unit,omitempty"`
	MinValue *int        `json:"min_value,omitempty"`
	MaxValue *int        `json:"max_value,omitempty"`
}

func bound(v int) *int { return &v }

var suggestedTrackers = []SuggestedTracker{
	{Slug: "sleep", Name: "Sleep", Type: TypeDuration, Unit: "hours"},
	{Slug: "wakeup", Name: "Wake Up", Type: TypeTime},
	{Slug: "mood", Name: "Mood", Type: TypeRating, MinValue: bound(1), MaxValue: bound(5)},
	{Slug: "water", Name: "Water", Type: TypeNumber, Unit: "glasses"},
	{Slug: "weight", Name: "Weight", Type: TypeNumber, Unit: "kg"},
	{Slug: "calories", Name: "Calories", Type: TypeNumber, Unit: "kcal"},
	{Slug: "steps", Name: "Steps", Type: TypeNumber, Unit: "steps"},
	{Slug: "exercise", Name: "Exercise", Type: TypeBinary},
	{Slug: "gym", Name: "Gym", Type: TypeBinary},
	{Slug: "stretching", Name: "Stretching", Type: TypeBinary},
	{Slug: "running", Name: "Running", Type: TypeDuration, Unit: "mins"},
	{Slug: "meditate", Name: "Meditate", Type: TypeBinary},
	{Slug: "journal", Name: "Journal", Type: TypeBinary},
	{Slug: "gratitude", Name: "Gratitude", Type: TypeBinary},
	{Slug: "prayer", Name: "Prayer", Type: TypeBinary},
	{Slug: "read", Name: "Read", Type: TypeBinary},
	{Slug: "study", Name: "Study", Type: TypeDuration, Unit: "mins"},
	{Slug: "work", Name: "Work", Type: TypeDuration, Unit: "hours"},
	{Slug: "sideproject", Name: "Side Project", Type: TypeBinary},
	{Slug: "learning", Name: "Learning", Type: TypeBinary},
	{Slug: "noalcohol", Name: "No Alcohol", Type: TypeBinary},
	{Slug: "nosmoking", Name: "No Smoking", Type: TypeBinary},
	{Slug: "nosocialmedia", Name: "No Social Media", Type: TypeBinary},
	{Slug: "skincare", Name: "Skincare", Type: TypeBinary},
	{Slug: "coldshower", Name: "Cold Shower", Type: TypeBinary},
	{Slug: "vitamins", Name: "Vitamins", Type: TypeBinary},
	{Slug: "notes", Name: "Notes", Type: TypeText},
	{Slug: "spending", Name: "Spending", Type: TypeNumber, Unit: "£"},
	{Slug: "callfamily", Name: "Call Family", Type: TypeBinary},
	{Slug: "cooking", Name: "Cooking", Type: TypeBinary},
}

// SuggestedTrackers returns the catalog sorted by slug.
func SuggestedTrackers() []SuggestedTracker {
	out := slices.Clone(suggestedTrackers)
	slices.SortFunc(out, func(a, b SuggestedTracker) int { return strings.Compare(a.Slug, b.Slug) })
	return out
}

// LookupSuggested finds a catalog template by slug.
func LookupSuggested(slug string) (SuggestedTracker, bool) {
	for _, s := range suggestedTrackers {
		if s.Slug == slug {
			return s, true
		}
	}
	return SuggestedTracker{}, false
}

// Tracker builds an active tracker for userID from the template.
func (s SuggestedTracker) Tracker(userID int64, displayOrder int) Tracker {
	t := Tracker{
		UserID:       userID,
		Name:         s.Name,
		Type:         s.Type,
		DisplayOrder: displayOrder,
		Active:       true,
	}
	if s.Unit != "" {
		u := s.Unit
		t.Unit = &u
	}
	if s.MinValue != nil {
		v := *s.MinValue
		t.MinValue = &v
	}
	if s.MaxValue != nil {
		v := *s.MaxValue
		t.MaxValue = &v
	}
	return t
}
