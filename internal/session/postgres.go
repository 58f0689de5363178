package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/notedesk/server/internal/store"
	"github.com/notedesk/server/types"
)

// SessionStore persists server-side session records.
type SessionStore interface {
	Create(ctx context.Context, id, username string) error
	GetUsername(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// StoreResolver implements server-side sessions: the cookie carries an
// opaque session id, the record behind it holds only the username, and
// every request re-fetches the full user row. A session whose user no
// longer exists does not authenticate.
type StoreResolver struct {
	sessions SessionStore
	users    UserLookup
	secure   bool
}

func NewStoreResolver(sessions SessionStore, users UserLookup, secure bool) *StoreResolver {
	return &StoreResolver{
		sessions: sessions,
		users:    users,
		secure:   secure,
	}
}

func (s *StoreResolver) Resolve(r *http.Request) (types.User, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return types.User{}, ErrUnauthenticated
	}

	username, err := s.sessions.GetUsername(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUnauthenticated
		}
		return types.User{}, err
	}

	user, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUnauthenticated
		}
		return types.User{}, err
	}
	return user, nil
}

func (s *StoreResolver) Establish(w http.ResponseWriter, r *http.Request, user types.User) error {
	id := uuid.NewString()
	if err := s.sessions.Create(r.Context(), id, user.Username); err != nil {
		return err
	}

	setCookie(w, id, s.secure)
	return nil
}

func (s *StoreResolver) Destroy(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		_ = s.sessions.Delete(r.Context(), cookie.Value)
	}
	clearCookie(w, s.secure)
}
