package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	maxTrackerName = 100
	maxTrackerUnit = 20
)

// Tracker is a user-defined metric definition shown as one grid column.
type Tracker struct {
	ID           int64       `json:"id"`
	UserID       int64       `json:"user_id"`
	Name         string      `json:"name"`
	Type         TrackerType `json:"tracker_type"`
	Unit         *string     `json:"unit"`
	DisplayOrder int         `json:"display_order"`
	Active       bool        `json:"is_active"`
	MinValue     *int        `json:"min_value"`
	MaxValue     *int        `json:"max_value"`
	CreatedAt    time.Time   `json:"created_at"`
}

// TrackerPatch carries optional tracker fields. Nil fields are left untouched.
type TrackerPatch struct {
	Name         *string      `json:"name"`
	Type         *TrackerType `json:"tracker_type"`
	Unit         *string      `json:"unit"`
	DisplayOrder *int         `json:"display_order"`
	Active       *bool        `json:"is_active"`
	MinValue     *int         `json:"min_value"`
	MaxValue     *int         `json:"max_value"`
}

// Apply copies the non-nil fields of p onto t.
func (p TrackerPatch) Apply(t *Tracker) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Unit != nil {
		u := *p.Unit
		t.Unit = &u
	}
	if p.DisplayOrder != nil {
		t.DisplayOrder = *p.DisplayOrder
	}
	if p.Active != nil {
		t.Active = *p.Active
	}
	if p.MinValue != nil {
		v := *p.MinValue
		t.MinValue = &v
	}
	if p.MaxValue != nil {
		v := *p.MaxValue
		t.MaxValue = &v
	}
}

// Normalize trims the name and unit and checks the tracker definition.
// Bounds are only meaningful for rating trackers and are dropped otherwise.
func (t *Tracker) Normalize() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return invalid("name", "name is required")
	}
	if len([]rune(t.Name)) > maxTrackerName {
		return invalid("name", "name must be at most %d characters", maxTrackerName)
	}
	if !t.Type.Valid() {
		return invalid("tracker_type", "unsupported tracker type %q", t.Type)
	}
	if t.Unit != nil {
		u := strings.TrimSpace(*t.Unit)
		switch {
		case u == "":
			t.Unit = nil
		case len([]rune(u)) > maxTrackerUnit:
			return invalid("unit", "unit must be at most %d characters", maxTrackerUnit)
		default:
			t.Unit = &u
		}
	}
	if t.DisplayOrder < 0 {
		return invalid("display_order", "display order must not be negative")
	}
	if t.Type != TypeRating {
		t.MinValue, t.MaxValue = nil, nil
		return nil
	}
	if t.MinValue != nil && t.MaxValue != nil && *t.MinValue > *t.MaxValue {
		return invalid("min_value", "minimum must not exceed maximum")
	}
	return nil
}

// CheckRating validates v against the tracker's optional bounds.
func (t *Tracker) CheckRating(v int) error {
	if t.MinValue != nil && v < *t.MinValue {
		return invalid(TypeRating.Field(), "rating must be at least %d", *t.MinValue)
	}
	if t.MaxValue != nil && v > *t.MaxValue {
		return invalid(TypeRating.Field(), "rating must be at most %d", *t.MaxValue)
	}
	return nil
}

// FormatRating renders v as "v/max" when a maximum is set.
func (t *Tracker) FormatRating(v int) string {
	if t.MaxValue != nil {
		return fmt.Sprintf("%d/%d", v, *t.MaxValue)
	}
	return fmt.Sprint(v)
}

// TrackerRepository defines the port for tracker persistence.
// GetTracker returns ErrNotFound for unknown ids.
type TrackerRepository interface {
	CreateTracker(ctx context.Context, t Tracker) (*Tracker, error)
	GetTracker(ctx context.Context, id int64) (*Tracker, error)
	ListTrackers(ctx context.Context, userID int64, activeOnly bool) ([]Tracker, error)
	UpdateTracker(ctx context.Context, t Tracker) error
	DeleteTracker(ctx context.Context, id int64) error
}
