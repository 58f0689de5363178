package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/notedesk/server/internal/services"
	"github.com/notedesk/server/internal/session"
	"github.com/notedesk/server/internal/views"
	"github.com/notedesk/server/types"
)

const maxRegisterFormMemory = 2 << 20

// AuthHandler serves the login/register pages and form posts.
type AuthHandler struct {
	auth     *services.AuthService
	sessions session.Resolver
	views    *views.Renderer
}

func NewAuthHandler(auth *services.AuthService, sessions session.Resolver, renderer *views.Renderer) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		views:    renderer,
	}
}

// AuthRouter registers the auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Get("/login", handler.ShowLogin)
	r.Post("/login", handler.Login)
	r.Get("/register", handler.ShowRegister)
	r.Post("/register", handler.Register)
	r.Get("/logout", handler.Logout)
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.views.Login(w, views.FormData{})
}

func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.views.Register(w, views.FormData{})
}

// Register creates a local account and logs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRegisterFormMemory); err != nil {
		h.views.Register(w, views.FormData{Error: "Registration failed"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		h.views.Register(w, views.FormData{Error: "Username is required"})
		return
	}

	avatar, cleanup, err := avatarFromForm(r)
	if err != nil {
		h.views.Register(w, views.FormData{Error: "Avatar must be a jpeg, png or gif up to 1MB"})
		return
	}
	defer cleanup()

	user, err := h.auth.Register(r.Context(), username, r.FormValue("password"), avatar)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateUser):
			h.views.Register(w, views.FormData{Error: "Username already exists"})
		case errors.Is(err, services.ErrInvalidUpload):
			h.views.Register(w, views.FormData{Error: "Avatar must be a jpeg, png or gif up to 1MB"})
		default:
			logError("registration", err)
			h.views.Register(w, views.FormData{Error: "Registration failed"})
		}
		return
	}

	h.establishAndRedirect(w, r, user)
}

// Login verifies local credentials and establishes a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))

	user, err := h.auth.Login(r.Context(), username, r.FormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			h.views.Login(w, views.FormData{Error: "User not found"})
		case errors.Is(err, services.ErrInvalidCredentials):
			h.views.Login(w, views.FormData{Error: "Incorrect password"})
		default:
			logError("login", err)
			h.views.Login(w, views.FormData{Error: "Login failed"})
		}
		return
	}

	h.establishAndRedirect(w, r, user)
}

// Logout destroys the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) establishAndRedirect(w http.ResponseWriter, r *http.Request, user types.User) {
	if err := h.sessions.Establish(w, r, user); err != nil {
		logError("establish session", err)
		h.views.Login(w, views.FormData{Error: "Login failed"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// avatarFromForm extracts the optional avatar file from the register
// form. The returned cleanup closes the underlying file.
func avatarFromForm(r *http.Request) (*services.AvatarUpload, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil || len(r.MultipartForm.File["avatar"]) == 0 {
		return nil, noop, nil
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		return nil, noop, err
	}

	return &services.AvatarUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}, func() { _ = file.Close() }, nil
}
