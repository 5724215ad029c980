package types

// User is a member allowed to log walking minutes.
type User struct {
	// ID is the opaque identifier of the user.
	ID string `json:"id" db:"id"`

	// Name is the unique display name entries are attributed to.
	// Matching is exact and case-sensitive.
	Name string `json:"name" db:"name"`
}

// UserDeletion describes the outcome of a cascading user delete.
type UserDeletion struct {
	// UserName is the name of the removed user.
	UserName string `json:"user_name"`

	// EntriesRemoved is the number of entries deleted along with the user.
	EntriesRemoved int `json:"entries_removed"`
}
