package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/notedesk/server/internal/store"
	"github.com/notedesk/server/types"
)

// CookieResolver implements the signed-cookie identity: the cookie
// payload is an HS256 JWT whose subject is the authenticated username,
// so it cannot be forged or tampered with client-side. A valid
// signature alone authenticates the request.
type CookieResolver struct {
	secret []byte
	users  UserLookup
	secure bool
}

// NewCookieResolver constructs a resolver signing with secret. users
// may be nil; when present the full user row is re-fetched so views
// can render profile data.
func NewCookieResolver(secret string, users UserLookup, secure bool) *CookieResolver {
	return &CookieResolver{
		secret: []byte(secret),
		users:  users,
		secure: secure,
	}
}

func (c *CookieResolver) Resolve(r *http.Request) (types.User, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return types.User{}, ErrUnauthenticated
	}

	username, err := parseSubject(cookie.Value, c.secret)
	if err != nil {
		return types.User{}, ErrUnauthenticated
	}

	// The signed cookie alone authenticates; the lookup only enriches
	// the identity when a user table is available.
	if c.users != nil {
		if user, err := c.users.GetByUsername(r.Context(), username); err == nil {
			return user, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, err
		}
	}
	return types.User{Username: username}, nil
}

func (c *CookieResolver) Establish(w http.ResponseWriter, r *http.Request, user types.User) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(MaxAge)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return err
	}

	setCookie(w, signed, c.secure)
	return nil
}

func (c *CookieResolver) Destroy(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, c.secure)
}

func parseSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}
