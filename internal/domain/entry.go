package domain

import (
	"context"
	"fmt"
	"time"
)

// DayLayout is the calendar date format used for snapshot days.
const DayLayout = "2006-01-02"

// DailySnapshot groups one user's entries for a single calendar date.
type DailySnapshot struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Day    string `json:"date"`
}

// Entry is one cell of the grid: a tracker's value on a snapshot's day.
type Entry struct {
	ID         int64 `json:"id"`
	TrackerID  int64 `json:"tracker"`
	SnapshotID int64 `json:"daily_snapshot"`
	Value
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseDay parses a "YYYY-MM-DD" date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date format %q", ErrInvalidInput, s)
	}
	return t, nil
}

// SnapshotRepository defines the port for daily snapshot persistence.
// GetOrCreateSnapshot must be safe against concurrent first writes for the
// same (user, day).
type SnapshotRepository interface {
	GetOrCreateSnapshot(ctx context.Context, userID int64, day string) (*DailySnapshot, error)
	ListSnapshots(ctx context.Context, userID int64, from, to string) ([]DailySnapshot, error)
}

// EntryRepository defines the port for entry persistence.
// CreateEntry returns ErrConflict when an entry already exists for the
// (tracker, snapshot) pair; FindEntry returns nil, nil when none exists.
type EntryRepository interface {
	GetEntry(ctx context.Context, id int64) (*Entry, error)
	FindEntry(ctx context.Context, trackerID, snapshotID int64) (*Entry, error)
	CreateEntry(ctx context.Context, trackerID, snapshotID int64) (*Entry, error)
	SaveEntry(ctx context.Context, e *Entry) error
	DeleteEntry(ctx context.Context, id int64) error
	ListSnapshotEntries(ctx context.Context, snapshotID int64, trackerIDs []int64) ([]Entry, error)
}

// Transactor runs fn inside a single storage transaction. Repository calls
// made with the context passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
