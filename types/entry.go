package types

import "time"

// Entry is one recorded block of walking minutes.
// Entries are immutable once created; they can only be deleted.
type Entry struct {
	// ID is the opaque identifier of the entry.
	ID string `json:"id" db:"id"`

	// UserName references User.Name. It is denormalized and not enforced
	// by a storage-level foreign key.
	UserName string `json:"user_name" db:"user_name"`

	// Minutes is the walked time, between 1 and the configured per-entry cap.
	Minutes int `json:"minutes" db:"minutes"`

	// WeekStartDate is the Monday (YYYY-MM-DD) of the week the entry was recorded in.
	WeekStartDate string `json:"week_start_date" db:"week_start_date"`

	// CreatedAt is the time the entry was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RelativeStats summarises a submitter's standing right after an entry was recorded.
type RelativeStats struct {
	UserTotalMinutes    int     `json:"userTotalMinutes"`
	ContributionPercent float64 `json:"contributionPercent"`
}

// SubmitResult is returned after a successful entry submission.
type SubmitResult struct {
	Entry         Entry         `json:"entry"`
	Message       string        `json:"message"`
	RelativeStats RelativeStats `json:"relativeStats"`
}
