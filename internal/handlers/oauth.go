package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/notedesk/server/config"
	"github.com/notedesk/server/internal/services"
	"github.com/notedesk/server/internal/session"
	"github.com/notedesk/server/internal/views"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie = "oauth_state"
	userinfoURL      = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// googleUserinfo is the subset of the userinfo response the app uses.
type googleUserinfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// GoogleHandler implements federated login through Google's OAuth
// consent flow.
type GoogleHandler struct {
	auth     *services.AuthService
	sessions session.Resolver
	views    *views.Renderer
	oauth    *oauth2.Config
}

func NewGoogleHandler(auth *services.AuthService, sessions session.Resolver, renderer *views.Renderer, cfg config.GoogleConfig) *GoogleHandler {
	return &GoogleHandler{
		auth:     auth,
		sessions: sessions,
		views:    renderer,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// GoogleRouter registers the OAuth routes. The callback path matches
// the redirect URL registered with the provider.
func GoogleRouter(r chi.Router, handler *GoogleHandler) {
	r.Get("/auth/google", handler.Redirect)
	r.Get("/auth/google/index", handler.Callback)
}

// Redirect sends the browser to the provider consent screen with a
// fresh state value pinned in a short-lived cookie.
func (h *GoogleHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	state := newState()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusSeeOther)
}

// Callback completes the federated login: it verifies the state,
// exchanges the code, fetches the user's identity and resolves it to
// an account.
func (h *GoogleHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		h.views.Login(w, views.FormData{Error: "Google sign-in failed"})
		return
	}

	token, err := h.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logError("oauth exchange", err)
		h.views.Login(w, views.FormData{Error: "Google sign-in failed"})
		return
	}

	info, err := h.fetchUserinfo(r, token)
	if err != nil {
		logError("oauth userinfo", err)
		h.views.Login(w, views.FormData{Error: "Google sign-in failed"})
		return
	}

	user, err := h.auth.FederatedLogin(r.Context(), info.ID, info.Email, info.Picture)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateUser) {
			h.views.Login(w, views.FormData{Error: "An account with this email already exists"})
			return
		}
		logError("federated login", err)
		h.views.Login(w, views.FormData{Error: "Google sign-in failed"})
		return
	}

	if err := h.sessions.Establish(w, r, user); err != nil {
		logError("establish session", err)
		h.views.Login(w, views.FormData{Error: "Google sign-in failed"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *GoogleHandler) fetchUserinfo(r *http.Request, token *oauth2.Token) (googleUserinfo, error) {
	resp, err := h.oauth.Client(r.Context(), token).Get(userinfoURL)
	if err != nil {
		return googleUserinfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserinfo{}, errors.New("userinfo request failed")
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserinfo{}, err
	}
	if info.ID == "" || info.Email == "" {
		return googleUserinfo{}, errors.New("incomplete userinfo response")
	}
	return info, nil
}

func newState() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
