package app

import (
	"time"

	"tracked/internal/domain"
)

// MonthRef is one entry of the month picker.
type MonthRef struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// CalendarMeta carries navigation data for a month view.
type CalendarMeta struct {
	MonthName string     `json:"month_name"`
	Months    []MonthRef `json:"months"`
	TotalDays int        `json:"total_days"`
	Today     string     `json:"today"`
	PrevYear  int        `json:"prev_year"`
	PrevMonth int        `json:"prev_month"`
	NextYear  int        `json:"next_year"`
	NextMonth int        `json:"next_month"`
}

// MonthNavigation returns the months before and after year/month, wrapping
// across year boundaries.
func MonthNavigation(year, month int) (prevYear, prevMonth, nextYear, nextMonth int) {
	prevYear, prevMonth = year, month-1
	if prevMonth == 0 {
		prevYear, prevMonth = year-1, 12
	}
	nextYear, nextMonth = year, month+1
	if nextMonth == 13 {
		nextYear, nextMonth = year+1, 1
	}
	return prevYear, prevMonth, nextYear, nextMonth
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func calendarMeta(year, month int, today time.Time) CalendarMeta {
	months := make([]MonthRef, 12)
	for i := range months {
		months[i] = MonthRef{Name: time.Month(i + 1).String()[:3], Number: i + 1}
	}
	py, pm, ny, nm := MonthNavigation(year, month)
	return CalendarMeta{
		MonthName: time.Month(month).String(),
		Months:    months,
		TotalDays: daysIn(year, month),
		Today:     today.Format(domain.DayLayout),
		PrevYear:  py,
		PrevMonth: pm,
		NextYear:  ny,
		NextMonth: nm,
	}
}
