package types

import "time"

// DefaultAvatarPath is served when an account has no stored avatar.
const DefaultAvatarPath = "/static/default-avatar.png"

// User represents an account in the system. The username is the stable
// identity key; notes reference it directly.
type User struct {
	// Username is the unique login name. For federated accounts this is
	// the email address reported by the identity provider.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the bcrypt hash of the user's password. It is
	// empty for federated accounts, which carry no local credential.
	// This field is never exposed in responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// GoogleID is the subject identifier assigned by Google for
	// federated accounts. Empty for local accounts.
	GoogleID string `json:"google_id,omitempty" db:"google_id"`

	// AvatarPath is the serving path or external URL of the user's
	// avatar. Empty means the built-in placeholder is used.
	AvatarPath string `json:"avatar_path,omitempty" db:"profile_picture"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Federated reports whether the account was created through an external
// identity provider and therefore carries no local password.
func (u User) Federated() bool {
	return u.GoogleID != ""
}

// Avatar returns the avatar path to render, falling back to the
// built-in placeholder.
func (u User) Avatar() string {
	if u.AvatarPath == "" {
		return DefaultAvatarPath
	}
	return u.AvatarPath
}
