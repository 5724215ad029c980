package progress

import (
	"sort"
	"time"

	"github.com/walkgoal/apiserver/types"
)

// DayStreak counts consecutive calendar days with at least one entry, ending today or yesterday.
// Days are taken from CreatedAt in now's location.
func DayStreak(entries []types.Entry, now time.Time) int {
	seen := make(map[time.Time]struct{}, len(entries))
	for _, entry := range entries {
		seen[calendarDay(entry.CreatedAt.In(now.Location()))] = struct{}{}
	}
	return streak(keys(seen), calendarDay(now), 1)
}

// WeekStreak counts consecutive weeks with at least one entry, ending in the current or previous week.
// Entries with an unparseable week start date are ignored.
func WeekStreak(entries []types.Entry, now time.Time) int {
	seen := make(map[time.Time]struct{})
	for _, total := range WeeklyTotals(entries) {
		if week, ok := parseDate(total.WeekStartDate); ok {
			seen[week] = struct{}{}
		}
	}
	return streak(keys(seen), WeekStart(now), 7)
}

// streak walks periods newest first. The newest period must be no more than stepDays
// before anchor; each older one must sit exactly stepDays before its successor.
// Periods after anchor count as current.
func streak(periods []time.Time, anchor time.Time, stepDays int) int {
	if len(periods) == 0 {
		return 0
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].After(periods[j]) })

	if daysBetween(anchor, periods[0]) > stepDays {
		return 0
	}

	count := 1
	for i := 1; i < len(periods); i++ {
		if daysBetween(periods[i-1], periods[i]) != stepDays {
			break
		}
		count++
	}
	return count
}

func keys(set map[time.Time]struct{}) []time.Time {
	out := make([]time.Time, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
