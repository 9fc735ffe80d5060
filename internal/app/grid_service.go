package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"tracked/internal/domain"

	log "github.com/sirupsen/logrus"
)

// GridEntry is an entry as shown in a grid cell.
type GridEntry struct {
	domain.Entry
	Display string `json:"display"`
}

// DayRecord is one day of a month grid.
type DayRecord struct {
	Date    string              `json:"date"`
	Day     int                 `json:"day"`
	Entries map[int64]GridEntry `json:"entries"`
}

// MonthGrid is the month view: trackers as columns, days grouped into weeks.
type MonthGrid struct {
	Year      int                `json:"year"`
	Month     int                `json:"month"`
	Trackers  []domain.Tracker   `json:"trackers"`
	Weeks     [][]DayRecord      `json:"weeks"`
	WeekStats []map[int64]string `json:"week_stats"`
	Calendar  CalendarMeta       `json:"calendar"`
}

// GridService builds month grids.
type GridService struct {
	trackers  domain.TrackerRepository
	snapshots domain.SnapshotRepository
	entries   domain.EntryRepository
	cache     *MonthCache
	log       log.FieldLogger
	now       func() time.Time
}

// NewGridService creates a GridService. cache may be nil.
func NewGridService(trackers domain.TrackerRepository, snapshots domain.SnapshotRepository, entries domain.EntryRepository, cache *MonthCache, logger log.FieldLogger) *GridService {
	return &GridService{
		trackers:  trackers,
		snapshots: snapshots,
		entries:   entries,
		cache:     cache,
		log:       logger,
		now:       time.Now,
	}
}

// BuildMonthGrid returns the user's active trackers and every day of the
// month with its entries. Viewing a month creates any missing snapshots.
func (s *GridService) BuildMonthGrid(ctx context.Context, userID int64, year, month int) (*MonthGrid, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", domain.ErrInvalidInput, month)
	}
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", domain.ErrInvalidInput, year)
	}

	grid := &MonthGrid{
		Year:     year,
		Month:    month,
		Calendar: calendarMeta(year, month, s.now()),
	}

	if data, ok := s.cache.get(userID, year, month); ok {
		s.log.WithFields(log.Fields{"user_id": userID, "year": year, "month": month}).Debug("month grid cache hit")
		grid.Trackers, grid.Weeks, grid.WeekStats = data.trackers, data.weeks, data.weekStats
		return grid, nil
	}

	gen := s.cache.generation(userID)
	trackers, err := s.trackers.ListTrackers(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(trackers, func(a, b domain.Tracker) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return strings.Compare(a.Name, b.Name)
	})

	weeks, err := s.buildWeeks(ctx, userID, year, month, trackers)
	if err != nil {
		return nil, err
	}

	grid.Trackers = trackers
	grid.Weeks = weeks
	grid.WeekStats = WeekStats(weeks, trackers)
	s.cache.add(userID, year, month, gen, monthData{trackers: trackers, weeks: weeks, weekStats: grid.WeekStats})
	return grid, nil
}

func (s *GridService) buildWeeks(ctx context.Context, userID int64, year, month int, trackers []domain.Tracker) ([][]DayRecord, error) {
	ids := make([]int64, len(trackers))
	byID := make(map[int64]*domain.Tracker, len(trackers))
	for i := range trackers {
		ids[i] = trackers[i].ID
		byID[trackers[i].ID] = &trackers[i]
	}

	last := daysIn(year, month)
	var weeks [][]DayRecord
	var week []DayRecord

	for d := 1; d <= last; d++ {
		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		day := date.Format(domain.DayLayout)

		snap, err := s.snapshots.GetOrCreateSnapshot(ctx, userID, day)
		if err != nil {
			return nil, err
		}

		entries, err := s.entries.ListSnapshotEntries(ctx, snap.ID, ids)
		if err != nil {
			return nil, err
		}

		rec := DayRecord{Date: day, Day: d, Entries: make(map[int64]GridEntry, len(entries))}
		for _, e := range entries {
			tr, ok := byID[e.TrackerID]
			if !ok {
				continue
			}
			rec.Entries[e.TrackerID] = GridEntry{Entry: e, Display: e.Display(tr)}
		}

		week = append(week, rec)
		if date.Weekday() == time.Sunday || d == last {
			weeks = append(weeks, week)
			week = nil
		}
	}
	return weeks, nil
}
