package store

import "errors"

// ErrNotFound is returned when a record does not exist, including
// ownership-scoped mutations that matched zero rows.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (username or google id).
var ErrDuplicate = errors.New("already exists")
