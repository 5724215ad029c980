// Package progress computes the dashboard metrics from raw entries.
// Everything here is pure: callers supply entries, settings and the current time.
package progress

import "time"

// DateLayout is the format of week start dates and calendar days.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// WeekStart returns the Monday on or before t's calendar date, at midnight UTC.
// Sunday belongs to the week that started six days earlier.
func WeekStart(t time.Time) time.Time {
	d := calendarDay(t)
	weekday := int(d.Weekday())
	offset := 1 - weekday
	if weekday == 0 {
		offset = -6
	}
	return d.AddDate(0, 0, offset)
}

// WeekStartDate formats WeekStart(t).
func WeekStartDate(t time.Time) string {
	return WeekStart(t).Format(DateLayout)
}

// calendarDay strips the clock and zone from t, keeping the date as seen in t's location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(value string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier) / day)
}
