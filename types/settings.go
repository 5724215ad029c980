package types

// Settings keys as stored in the key/value settings table.
const (
	SettingGoalMinutes   = "goal_minutes"
	SettingStartLocation = "start_location"
	SettingEndLocation   = "end_location"
	SettingAdminPassword = "admin_password"
)

// Settings is the typed view of the settings table with defaults applied.
type Settings struct {
	// GoalMinutes is the shared goal, always positive.
	GoalMinutes int `json:"goal_minutes"`

	// StartLocation labels the beginning of the path.
	StartLocation string `json:"start_location"`

	// EndLocation labels the destination.
	EndLocation string `json:"end_location"`

	// AdminPasswordHash is the bcrypt hash of the admin password.
	// This field is never exposed in API responses.
	AdminPasswordHash string `json:"-"`
}

// SettingsUpdate carries a partial settings change. Nil fields are left untouched.
type SettingsUpdate struct {
	GoalMinutes   *string `json:"goal_minutes,omitempty"`
	StartLocation *string `json:"start_location,omitempty"`
	EndLocation   *string `json:"end_location,omitempty"`
	AdminPassword *string `json:"admin_password,omitempty"`
}
