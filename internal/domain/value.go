package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TrackerType selects which Entry value field holds a tracker's data.
type TrackerType string

// Supported tracker types.
const (
	TypeBinary   TrackerType = "binary"
	TypeNumber   TrackerType = "number"
	TypeRating   TrackerType = "rating"
	TypeDuration TrackerType = "duration"
	TypeTime     TrackerType = "time"
	TypeText     TrackerType = "text"
)

// TrackerTypes lists every supported type in display order.
var TrackerTypes = []TrackerType{TypeBinary, TypeNumber, TypeTime, TypeDuration, TypeText, TypeRating}

// Valid reports whether t is a supported tracker type.
func (t TrackerType) Valid() bool {
	return t.Field() != ""
}

// Field returns the JSON name of the value field used by t, or "" if t is unknown.
func (t TrackerType) Field() string {
	switch t {
	case TypeBinary:
		return "binary_value"
	case TypeNumber:
		return "number_value"
	case TypeRating:
		return "rating_value"
	case TypeDuration:
		return "duration_minutes"
	case TypeTime:
		return "time_value"
	case TypeText:
		return "text_value"
	}
	return ""
}

// maxNumber bounds number values to ten digits with two decimal places.
var maxNumber = decimal.New(1, 8)

// Value is the flat set of per-type value fields stored on an Entry.
// At most one field is non-nil; which one is decided by the tracker's type.
type Value struct {
	Binary   *bool            `json:"binary_value"`
	Number   *decimal.Decimal `json:"number_value"`
	Rating   *int             `json:"rating_value"`
	Duration *int             `json:"duration_minutes"`
	Time     *TimeOfDay       `json:"time_value"`
	Text     *string          `json:"text_value"`
}

// Clear resets every value field to null.
func (v *Value) Clear() {
	*v = Value{}
}

// Populated returns how many value fields are non-null.
func (v Value) Populated() int {
	n := 0
	for _, set := range []bool{v.Binary != nil, v.Number != nil, v.Rating != nil, v.Duration != nil, v.Time != nil, v.Text != nil} {
		if set {
			n++
		}
	}
	return n
}

// Has reports whether the field belonging to t is populated.
func (v Value) Has(t TrackerType) bool {
	switch t {
	case TypeBinary:
		return v.Binary != nil
	case TypeNumber:
		return v.Number != nil
	case TypeRating:
		return v.Rating != nil
	case TypeDuration:
		return v.Duration != nil
	case TypeTime:
		return v.Time != nil
	case TypeText:
		return v.Text != nil
	}
	return false
}

// Set validates the payload field matching tr.Type and stores it. The
// receiver should be cleared first; on error it is left unchanged.
func (v *Value) Set(tr *Tracker, p EntryPayload) error {
	field := tr.Type.Field()
	switch tr.Type {
	case TypeBinary:
		if p.Binary == nil {
			return invalid(field, "value is required")
		}
		b := *p.Binary
		v.Binary = &b

	case TypeNumber:
		if p.Number == nil {
			return invalid(field, "value is required")
		}
		d, err := ParseNumber(*p.Number)
		if err != nil {
			return err
		}
		v.Number = &d

	case TypeRating:
		if p.Rating == nil {
			return invalid(field, "value is required")
		}
		if *p.Rating < math.MinInt32 || *p.Rating > math.MaxInt32 {
			return invalid(field, "rating is out of range")
		}
		if err := tr.CheckRating(*p.Rating); err != nil {
			return err
		}
		r := *p.Rating
		v.Rating = &r

	case TypeDuration:
		if p.Duration == nil {
			return invalid(field, "value is required")
		}
		if *p.Duration < 0 {
			return invalid(field, "duration must be a non-negative number of minutes")
		}
		if *p.Duration > math.MaxInt32 {
			return invalid(field, "duration is too large")
		}
		d := *p.Duration
		v.Duration = &d

	case TypeTime:
		if p.Time == nil {
			return invalid(field, "value is required")
		}
		t, err := ParseTimeOfDay(*p.Time)
		if err != nil {
			return invalid(field, "time must be in HH:MM format")
		}
		v.Time = &t

	case TypeText:
		if p.Text == nil {
			return invalid(field, "value is required")
		}
		s := *p.Text
		v.Text = &s

	default:
		return invalid("tracker_type", "unsupported tracker type %q", tr.Type)
	}
	return nil
}

// ParseNumber parses a decimal literal and rounds it to two places.
func ParseNumber(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, invalid(TypeNumber.Field(), "invalid number")
	}
	d = d.Round(2)
	if d.Abs().GreaterThanOrEqual(maxNumber) {
		return decimal.Decimal{}, invalid(TypeNumber.Field(), "ensure there are no more than 10 digits in total")
	}
	return d, nil
}

// FormatDuration renders minutes as "4h 30min", "5h" or "45min".
func FormatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dmin", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dmin", m)
	}
}

// Display renders the populated field for tr.Type, or "" when it is null.
func (v Value) Display(tr *Tracker) string {
	switch tr.Type {
	case TypeBinary:
		if v.Binary != nil {
			return strconv.FormatBool(*v.Binary)
		}
	case TypeNumber:
		if v.Number != nil {
			return v.Number.String()
		}
	case TypeRating:
		if v.Rating != nil {
			return tr.FormatRating(*v.Rating)
		}
	case TypeDuration:
		if v.Duration != nil {
			return FormatDuration(*v.Duration)
		}
	case TypeTime:
		if v.Time != nil {
			return v.Time.String()
		}
	case TypeText:
		if v.Text != nil {
			return *v.Text
		}
	}
	return ""
}

// EntryPayload is the raw input for a single cell write.
type EntryPayload struct {
	Delete   bool
	Binary   *bool
	Number   *string
	Rating   *int
	Duration *int
	Time     *string
	Text     *string
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM"; a trailing ":SS" is accepted and dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		var err2 error
		if t, err2 = time.Parse("15:04:05", s); err2 != nil {
			return TimeOfDay{}, err
		}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String returns the ISO form "HH:MM:SS".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// MarshalJSON implements json.Marshaler.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner for TIME columns.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDay{Hour: v.Hour(), Minute: v.Minute()}
		return nil
	case []byte:
		return t.Scan(string(v))
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return fmt.Errorf("scan time of day %q: %w", v, err)
		}
		*t = parsed
		return nil
	}
	return fmt.Errorf("scan time of day: unsupported type %T", src)
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}
