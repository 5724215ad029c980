package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing unique record.
// Only the in-memory store can detect this itself; SQL stores surface driver errors
// and callers resolve them by re-reading.
var ErrConflict = errors.New("conflict")
