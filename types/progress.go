package types

// Progress is the aggregate snapshot shown on the dashboard.
type Progress struct {
	TotalMinutes       int            `json:"totalMinutes"`
	GoalMinutes        int            `json:"goalMinutes"`
	ProgressPercentage float64        `json:"progressPercentage"`
	StartLocation      string         `json:"startLocation"`
	EndLocation        string         `json:"endLocation"`
	WeekMinutes        int            `json:"weekMinutes"`
	WeekStartDate      string         `json:"weekStartDate"`
	TotalEntries       int            `json:"totalEntries"`
	StreakWeeks        int            `json:"streakWeeks"`
	StreakDays         int            `json:"streakDays"`
	Contributors       []Contribution `json:"contributors"`
}

// Contribution is one user's share of the shared goal.
type Contribution struct {
	Name                string  `json:"name"`
	TotalMinutes        int     `json:"totalMinutes"`
	ContributionPercent float64 `json:"contributionPercent"`
}

// WeekTotal is the group total for a single week.
type WeekTotal struct {
	WeekStartDate string `json:"weekStartDate"`
	TotalMinutes  int    `json:"totalMinutes"`
	Entries       int    `json:"entries"`
}
