package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/notedesk/server/internal/session"
	"github.com/notedesk/server/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// RequireAuth resolves the session on each request, redirecting to
// /login when no valid session is attached, and injects the resolved
// user into the request context.
func RequireAuth(sessions session.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Resolve(r)
			if err != nil {
				if !errors.Is(err, session.ErrUnauthenticated) {
					logError("resolve session", err)
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NoCache disables client-side caching of authenticated pages so a
// back-navigation after logout does not show stale notes.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

// Errors are logged server-side only; users see a generic message on
// the re-rendered form.
func logError(msg string, err error) {
	log.Printf("%s: %v", msg, err)
}
