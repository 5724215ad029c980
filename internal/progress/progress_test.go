package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkgoal/apiserver/types"
)

// 2026-10-14 is a Wednesday.
var wednesday = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func entryAt(name string, minutes int, at time.Time) types.Entry {
	return types.Entry{
		ID:            name + at.Format(time.RFC3339),
		UserName:      name,
		Minutes:       minutes,
		WeekStartDate: WeekStartDate(at),
		CreatedAt:     at,
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"monday", time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC), "2026-10-12"},
		{"wednesday", wednesday, "2026-10-12"},
		{"saturday", time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC), "2026-10-12"},
		{"sunday belongs to same week", time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), "2026-10-12"},
		{"across month boundary", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), "2026-09-28"},
		{"across year boundary", time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), "2026-12-28"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekStartDate(tc.at))
		})
	}
}

func TestWeekStart_UsesLocationOfTime(t *testing.T) {
	// Monday 01:00 at UTC+2 is still Sunday in UTC.
	zone := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2026, 10, 19, 1, 0, 0, 0, zone)

	assert.Equal(t, "2026-10-19", WeekStartDate(local))
	assert.Equal(t, "2026-10-12", WeekStartDate(local.UTC()))
}

func TestCompute_GoalExample(t *testing.T) {
	entries := []types.Entry{
		entryAt("ann", 120, wednesday),
		entryAt("bob", 180, wednesday.Add(-time.Hour)),
	}

	got := Compute(entries, types.Settings{GoalMinutes: 600}, wednesday)

	assert.Equal(t, 300, got.TotalMinutes)
	assert.Equal(t, 600, got.GoalMinutes)
	assert.Equal(t, 50.0, got.ProgressPercentage)
	assert.Equal(t, 300, got.WeekMinutes)
	assert.Equal(t, "2026-10-12", got.WeekStartDate)
	assert.Equal(t, 2, got.TotalEntries)
	assert.Equal(t, 1, got.StreakDays)
	assert.Equal(t, 1, got.StreakWeeks)
	require.Len(t, got.Contributors, 2)
	assert.Equal(t, "bob", got.Contributors[0].Name)
	assert.Equal(t, 30.0, got.Contributors[0].ContributionPercent)
}

func TestCompute_Empty(t *testing.T) {
	got := Compute(nil, types.Settings{}, wednesday)

	assert.Equal(t, 0, got.TotalMinutes)
	assert.Equal(t, DefaultGoalMinutes, got.GoalMinutes)
	assert.Equal(t, 0.0, got.ProgressPercentage)
	assert.Equal(t, DefaultStartLocation, got.StartLocation)
	assert.Equal(t, DefaultEndLocation, got.EndLocation)
	assert.Equal(t, 0, got.WeekMinutes)
	assert.Equal(t, 0, got.TotalEntries)
	assert.Equal(t, 0, got.StreakDays)
	assert.Equal(t, 0, got.StreakWeeks)
	assert.Empty(t, got.Contributors)
}

func TestCompute_WeekMinutesOnlyCountsCurrentWeek(t *testing.T) {
	entries := []types.Entry{
		entryAt("ann", 40, wednesday),
		entryAt("ann", 70, wednesday.AddDate(0, 0, -7)),
	}

	got := Compute(entries, types.Settings{GoalMinutes: 600}, wednesday)

	assert.Equal(t, 110, got.TotalMinutes)
	assert.Equal(t, 40, got.WeekMinutes)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 100.0, Percentage(5000, 600))
	assert.Equal(t, 33.33, Percentage(200, 600))
	assert.Equal(t, 0.0, Percentage(200, 0))
	assert.Equal(t, 0.0, Percentage(200, -10))

	for total := 0; total <= 5000; total += 37 {
		pct := Percentage(total, 600)
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
	}
}

func TestContributionPercent(t *testing.T) {
	assert.Equal(t, 16.7, ContributionPercent(100, 600))
	assert.Equal(t, 150.0, ContributionPercent(900, 600))
	assert.Equal(t, 0.0, ContributionPercent(100, 0))
}

func TestDayStreak(t *testing.T) {
	today := wednesday
	yesterday := today.AddDate(0, 0, -1)
	dayBefore := today.AddDate(0, 0, -2)

	t.Run("three consecutive days", func(t *testing.T) {
		entries := []types.Entry{
			entryAt("ann", 10, today),
			entryAt("bob", 10, today.Add(-time.Hour)),
			entryAt("ann", 10, yesterday),
			entryAt("ann", 10, dayBefore),
		}
		assert.Equal(t, 3, DayStreak(entries, today))
	})

	t.Run("gap breaks the chain", func(t *testing.T) {
		entries := []types.Entry{
			entryAt("ann", 10, today),
			entryAt("ann", 10, yesterday),
			entryAt("ann", 10, today.AddDate(0, 0, -3)),
			entryAt("ann", 10, today.AddDate(0, 0, -4)),
		}
		assert.Equal(t, 2, DayStreak(entries, today))
	})

	t.Run("anchored at yesterday", func(t *testing.T) {
		entries := []types.Entry{
			entryAt("ann", 10, yesterday),
			entryAt("ann", 10, dayBefore),
		}
		assert.Equal(t, 2, DayStreak(entries, today))
	})

	t.Run("stale activity", func(t *testing.T) {
		entries := []types.Entry{entryAt("ann", 10, dayBefore)}
		assert.Equal(t, 0, DayStreak(entries, today))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, DayStreak(nil, today))
	})
}

func TestWeekStreak(t *testing.T) {
	now := wednesday

	t.Run("weeks seven days apart chain", func(t *testing.T) {
		entries := []types.Entry{
			entryAt("ann", 10, now),
			entryAt("ann", 10, now.AddDate(0, 0, -7)),
			entryAt("ann", 10, now.AddDate(0, 0, -14)),
		}
		assert.Equal(t, 3, WeekStreak(entries, now))
	})

	t.Run("fourteen day gap breaks", func(t *testing.T) {
		entries := []types.Entry{
			entryAt("ann", 10, now),
			entryAt("ann", 10, now.AddDate(0, 0, -14)),
			entryAt("ann", 10, now.AddDate(0, 0, -21)),
		}
		assert.Equal(t, 1, WeekStreak(entries, now))
	})

	t.Run("previous week keeps streak alive", func(t *testing.T) {
		entries := []types.Entry{
			entryAt("ann", 10, now.AddDate(0, 0, -7)),
			entryAt("ann", 10, now.AddDate(0, 0, -14)),
		}
		assert.Equal(t, 2, WeekStreak(entries, now))
	})

	t.Run("two weeks idle resets", func(t *testing.T) {
		entries := []types.Entry{entryAt("ann", 10, now.AddDate(0, 0, -14))}
		assert.Equal(t, 0, WeekStreak(entries, now))
	})

	t.Run("invalid week dates are skipped", func(t *testing.T) {
		entries := []types.Entry{
			entryAt("ann", 10, now),
			{UserName: "ann", Minutes: 5, WeekStartDate: "not-a-date", CreatedAt: now},
		}
		assert.Equal(t, 1, WeekStreak(entries, now))
	})
}

func TestWeeklyTotals(t *testing.T) {
	entries := []types.Entry{
		entryAt("ann", 10, wednesday),
		entryAt("bob", 20, wednesday),
		entryAt("ann", 5, wednesday.AddDate(0, 0, -7)),
	}

	got := WeeklyTotals(entries)

	require.Len(t, got, 2)
	assert.Equal(t, types.WeekTotal{WeekStartDate: "2026-10-05", TotalMinutes: 5, Entries: 1}, got[0])
	assert.Equal(t, types.WeekTotal{WeekStartDate: "2026-10-12", TotalMinutes: 30, Entries: 2}, got[1])
}

func TestUserTotal(t *testing.T) {
	entries := []types.Entry{
		entryAt("ann", 10, wednesday),
		entryAt("Ann", 20, wednesday),
		entryAt("ann", 30, wednesday),
	}
	assert.Equal(t, 40, UserTotal(entries, "ann"))
	assert.Equal(t, 0, UserTotal(entries, "nobody"))
}
