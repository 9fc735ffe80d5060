package app

import (
	"fmt"
	"math"

	"tracked/internal/domain"
)

// NoStat is shown for a week without a computable statistic.
const NoStat = "—"

// WeekStats returns, for every week, a tracker id to summary string map.
func WeekStats(weeks [][]DayRecord, trackers []domain.Tracker) []map[int64]string {
	out := make([]map[int64]string, len(weeks))
	for i, week := range weeks {
		stats := make(map[int64]string, len(trackers))
		for _, tr := range trackers {
			stats[tr.ID] = TrackerWeekStat(tr, week)
		}
		out[i] = stats
	}
	return out
}

// TrackerWeekStat summarises one tracker over one week of day records.
//
//	binary          days marked true, as "count/len"
//	number, rating  mean of recorded values with one decimal
//	time, duration  days with an entry, as "count/len"
//	text            days with non-empty text, as "count/len"
func TrackerWeekStat(tr domain.Tracker, week []DayRecord) string {
	switch tr.Type {
	case domain.TypeBinary:
		n := 0
		for _, day := range week {
			if e, ok := day.Entries[tr.ID]; ok && e.Binary != nil && *e.Binary {
				n++
			}
		}
		return fmt.Sprintf("%d/%d", n, len(week))

	case domain.TypeNumber, domain.TypeRating:
		var sum float64
		n := 0
		for _, day := range week {
			e, ok := day.Entries[tr.ID]
			if !ok {
				continue
			}
			v, ok := numeric(e.Value, tr.Type)
			if !ok {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			return NoStat
		}
		return fmt.Sprintf("%.1f", sum/float64(n))

	case domain.TypeTime, domain.TypeDuration:
		n := 0
		for _, day := range week {
			if _, ok := day.Entries[tr.ID]; ok {
				n++
			}
		}
		return fmt.Sprintf("%d/%d", n, len(week))

	case domain.TypeText:
		n := 0
		for _, day := range week {
			if e, ok := day.Entries[tr.ID]; ok && e.Text != nil && *e.Text != "" {
				n++
			}
		}
		return fmt.Sprintf("%d/%d", n, len(week))
	}
	return NoStat
}

// numeric coerces a number or rating value; values that do not fit a finite
// float64 are reported as absent.
func numeric(v domain.Value, t domain.TrackerType) (float64, bool) {
	var f float64
	switch {
	case t == domain.TypeRating && v.Rating != nil:
		f = float64(*v.Rating)
	case t == domain.TypeNumber && v.Number != nil:
		f = v.Number.InexactFloat64()
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
