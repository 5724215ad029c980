package progress

import (
	"math"
	"sort"
	"time"

	"github.com/walkgoal/apiserver/types"
)

const (
	DefaultGoalMinutes   = 600
	DefaultStartLocation = "Start"
	DefaultEndLocation   = "Destination"
)

// Compute builds the dashboard snapshot for the given entries as of now.
// Zero-valued settings fields fall back to the defaults.
func Compute(entries []types.Entry, settings types.Settings, now time.Time) types.Progress {
	goal := settings.GoalMinutes
	if goal <= 0 {
		goal = DefaultGoalMinutes
	}
	start := settings.StartLocation
	if start == "" {
		start = DefaultStartLocation
	}
	end := settings.EndLocation
	if end == "" {
		end = DefaultEndLocation
	}

	weekStart := WeekStartDate(now)
	total, weekMinutes := 0, 0
	for _, entry := range entries {
		total += entry.Minutes
		if entry.WeekStartDate == weekStart {
			weekMinutes += entry.Minutes
		}
	}

	return types.Progress{
		TotalMinutes:       total,
		GoalMinutes:        goal,
		ProgressPercentage: Percentage(total, goal),
		StartLocation:      start,
		EndLocation:        end,
		WeekMinutes:        weekMinutes,
		WeekStartDate:      weekStart,
		TotalEntries:       len(entries),
		StreakWeeks:        WeekStreak(entries, now),
		StreakDays:         DayStreak(entries, now),
		Contributors:       Contributions(entries, goal),
	}
}

// Percentage is total/goal as a percentage capped at 100, rounded to two decimals.
func Percentage(total, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	pct := math.Min(float64(total)/float64(goal)*100, 100)
	return round(pct, 2)
}

// ContributionPercent is a single user's minutes as a share of the goal, rounded to one decimal.
// Unlike Percentage it is not capped.
func ContributionPercent(userTotal, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return round(float64(userTotal)/float64(goal)*100, 1)
}

// Contributions sums minutes per user, largest contributor first.
func Contributions(entries []types.Entry, goal int) []types.Contribution {
	totals := make(map[string]int)
	for _, entry := range entries {
		totals[entry.UserName] += entry.Minutes
	}

	out := make([]types.Contribution, 0, len(totals))
	for name, minutes := range totals {
		out = append(out, types.Contribution{
			Name:                name,
			TotalMinutes:        minutes,
			ContributionPercent: ContributionPercent(minutes, goal),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMinutes != out[j].TotalMinutes {
			return out[i].TotalMinutes > out[j].TotalMinutes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// WeeklyTotals groups entries by week start date, oldest week first.
func WeeklyTotals(entries []types.Entry) []types.WeekTotal {
	byWeek := make(map[string]*types.WeekTotal)
	for _, entry := range entries {
		wt, ok := byWeek[entry.WeekStartDate]
		if !ok {
			wt = &types.WeekTotal{WeekStartDate: entry.WeekStartDate}
			byWeek[entry.WeekStartDate] = wt
		}
		wt.TotalMinutes += entry.Minutes
		wt.Entries++
	}

	out := make([]types.WeekTotal, 0, len(byWeek))
	for _, wt := range byWeek {
		out = append(out, *wt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStartDate < out[j].WeekStartDate })
	return out
}

// UserTotal sums the minutes of entries attributed to name.
func UserTotal(entries []types.Entry, name string) int {
	total := 0
	for _, entry := range entries {
		if entry.UserName == name {
			total += entry.Minutes
		}
	}
	return total
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
