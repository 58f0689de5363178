package services

import "errors"

// Authentication and upload failures surfaced to the route layer.
// Each maps to a human-readable message on the re-rendered form.
var (
	// ErrDuplicateUser is returned when registering a username that
	// already exists.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrUserNotFound is returned when logging in with an unknown
	// username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when the password does not
	// match, or when a local login is attempted against a federated
	// account.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidUpload is returned when an uploaded avatar has a
	// disallowed type or exceeds the size ceiling.
	ErrInvalidUpload = errors.New("invalid upload")
)
