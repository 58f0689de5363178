// Package session maps opaque browser cookies to authenticated users.
// Two mutually exclusive backends implement the same contract: a
// signed-cookie identity carrying the username in an HS256 JWT, and a
// server-side session store holding only a session id client-side.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/notedesk/server/types"
)

// CookieName is the session cookie set by both backends.
const CookieName = "notedesk_session"

// MaxAge bounds the lifetime of the session cookie.
const MaxAge = 24 * time.Hour

// ErrUnauthenticated is returned by Resolve when no valid session is
// attached to the request.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver establishes, resolves and destroys sessions.
type Resolver interface {
	// Resolve maps the request's session cookie to a user, or returns
	// ErrUnauthenticated.
	Resolve(r *http.Request) (types.User, error)

	// Establish creates a session for the user and sets the cookie.
	Establish(w http.ResponseWriter, r *http.Request, user types.User) error

	// Destroy invalidates the request's session and clears the cookie.
	Destroy(w http.ResponseWriter, r *http.Request)
}

// UserLookup re-fetches the full user row for a resolved username.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
}

func setCookie(w http.ResponseWriter, value string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
	})
}
