package app_test

import (
	"testing"

	"tracked/internal/app"
	"tracked/internal/domain"

	"github.com/shopspring/decimal"
)

func week(id int64, values ...domain.Value) []app.DayRecord {
	days := make([]app.DayRecord, len(values))
	for i, v := range values {
		days[i] = app.DayRecord{Day: i + 1, Entries: map[int64]app.GridEntry{}}
		if v.Populated() > 0 {
			days[i].Entries[id] = app.GridEntry{Entry: domain.Entry{TrackerID: id, Value: v}}
		}
	}
	return days
}

// entries builds a week where nil means no entry for that day.
func entries(id int64, values ...*domain.Value) []app.DayRecord {
	days := make([]app.DayRecord, len(values))
	for i, v := range values {
		days[i] = app.DayRecord{Day: i + 1, Entries: map[int64]app.GridEntry{}}
		if v != nil {
			days[i].Entries[id] = app.GridEntry{Entry: domain.Entry{TrackerID: id, Value: *v}}
		}
	}
	return days
}

func num(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestTrackerWeekStat(t *testing.T) {
	const id = 1
	tests := []struct {
		name string
		typ  domain.TrackerType
		week []app.DayRecord
		want string
	}{
		{"binary", domain.TypeBinary, week(id, domain.Value{Binary: ptr(true)}, domain.Value{Binary: ptr(false)}, domain.Value{Binary: ptr(true)}), "2/3"},
		{"binary missing days", domain.TypeBinary, week(id, domain.Value{}, domain.Value{Binary: ptr(true)}), "1/2"},
		{"number empty", domain.TypeNumber, week(id, domain.Value{}, domain.Value{}), app.NoStat},
		{"number mean", domain.TypeNumber, week(id, domain.Value{Number: num("4")}, domain.Value{Number: num("5")}, domain.Value{Number: num("6")}), "5.0"},
		{"number skips gaps", domain.TypeNumber, week(id, domain.Value{Number: num("7.25")}, domain.Value{}), "7.2"},
		{"rating mean", domain.TypeRating, week(id, domain.Value{Rating: ptr(3)}, domain.Value{Rating: ptr(4)}), "3.5"},
		{"time presence", domain.TypeTime, week(id, domain.Value{Time: &domain.TimeOfDay{Hour: 7}}, domain.Value{}, domain.Value{}), "1/3"},
		{"duration presence", domain.TypeDuration, week(id, domain.Value{Duration: ptr(0)}, domain.Value{Duration: ptr(30)}), "2/2"},
		{"duration counts entry with stale field", domain.TypeDuration, entries(id, &domain.Value{Number: num("30")}, nil), "1/2"},
		{"time counts empty entry", domain.TypeTime, entries(id, &domain.Value{}, nil, &domain.Value{Time: &domain.TimeOfDay{Hour: 6}}), "2/3"},
		{"text non-empty", domain.TypeText, week(id, domain.Value{Text: ptr("ok")}, domain.Value{Text: ptr("")}), "1/2"},
		{"unknown type", domain.TrackerType("mystery"), week(id, domain.Value{Text: ptr("x")}), app.NoStat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := app.TrackerWeekStat(domain.Tracker{ID: id, Type: tc.typ}, tc.week)
			if got != tc.want {
				t.Errorf("got %q; want %q", got, tc.want)
			}
		})
	}
}

func TestWeekStats(t *testing.T) {
	trackers := []domain.Tracker{{ID: 1, Type: domain.TypeBinary}, {ID: 2, Type: domain.TypeNumber}}
	weeks := [][]app.DayRecord{
		week(1, domain.Value{Binary: ptr(true)}),
		week(2, domain.Value{Number: num("10")}, domain.Value{Number: num("20")}),
	}
	stats := app.WeekStats(weeks, trackers)
	if len(stats) != 2 {
		t.Fatalf("got %d weeks of stats", len(stats))
	}
	if stats[0][1] != "1/1" || stats[0][2] != app.NoStat {
		t.Errorf("week 0 = %v", stats[0])
	}
	if stats[1][1] != "0/2" || stats[1][2] != "15.0" {
		t.Errorf("week 1 = %v", stats[1])
	}
}
