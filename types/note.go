package types

import "time"

// Note represents a single note owned by a user.
type Note struct {
	// ID is the unique identifier of the note within its store.
	ID int64 `json:"id" db:"id"`

	// Username identifies the owner of the note.
	Username string `json:"username" db:"username"`

	// Content is the note body. It is always non-empty after
	// validation; whitespace-only submissions are dropped before a
	// note is created.
	Content string `json:"content" db:"content"`

	// CreatedAt is the timestamp at which the note was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit. It equals
	// CreatedAt until the note is edited.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
