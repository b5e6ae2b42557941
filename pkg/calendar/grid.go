// Package calendar holds the date math behind the admin booking calendar.
package calendar

import (
	"time"

	"github.com/jinzhu/now"
)

const daysPerWeek = 7

// TruncateDay drops the time-of-day of t as seen in t's own location and returns that
// calendar day at midnight UTC, so days from different locations compare by date only.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	day := TruncateDay(t)
	first := now.With(day).BeginningOfMonth()
	last := TruncateDay(now.With(day).EndOfMonth())
	return first, last
}

// BuildMonthGrid lays out the month containing month as full Monday-first weeks.
// Days outside the month are nil.
func BuildMonthGrid(month time.Time) []*time.Time {
	first, last := MonthRange(month)

	// time.Weekday is Sunday=0; shift so Monday=0.
	offset := (int(first.Weekday()) + 6) % daysPerWeek

	grid := make([]*time.Time, 0, 42)
	for i := 0; i < offset; i++ {
		grid = append(grid, nil)
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := d
		grid = append(grid, &day)
	}
	for len(grid)%daysPerWeek != 0 {
		grid = append(grid, nil)
	}
	return grid
}

// IsDateWithinRange reports whether date falls in [start, end], comparing days only.
func IsDateWithinRange(date, start, end time.Time) bool {
	d := TruncateDay(date)
	return !d.Before(TruncateDay(start)) && !d.After(TruncateDay(end))
}

// DaysInclusive counts the days in [start, end]; 0 when end is before start.
func DaysInclusive(start, end time.Time) int {
	s, e := TruncateDay(start), TruncateDay(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// ParseMonth parses "YYYY-MM" into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, err
	}
	return TruncateDay(t), nil
}
