package services

import "errors"

// ValidationError is bad caller input. Code is a stable machine-readable
// reason; Message is safe to show to users.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingName       = &ValidationError{Code: "missing_name", Message: "name is required"}
	ErrNameTooLong       = &ValidationError{Code: "name_too_long", Message: "name must be at most 100 characters"}
	ErrInvalidMinutes    = &ValidationError{Code: "invalid_minutes", Message: "minutes must be a positive number"}
	ErrMinutesExceedsCap = &ValidationError{Code: "minutes_exceeds_cap", Message: "minutes exceed the per-entry maximum"}
	ErrUnknownUser       = &ValidationError{Code: "unknown_user", Message: "user is not registered"}
	ErrInvalidGoal       = &ValidationError{Code: "invalid_goal", Message: "goal_minutes must be a positive integer"}
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrAdminNotConfigured = errors.New("admin password is not configured")
	ErrInvalidPassword    = errors.New("invalid password")
)

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
