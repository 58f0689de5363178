package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/notedesk/server/internal/services"
	"github.com/notedesk/server/internal/storage"
	"github.com/notedesk/server/internal/store"
	"github.com/notedesk/server/internal/views"
)

// NoteHandler serves the note list and the note mutation form posts.
type NoteHandler struct {
	notes   *services.NoteService
	avatars *services.AvatarService
	views   *views.Renderer
}

func NewNoteHandler(notes *services.NoteService, avatars *services.AvatarService, renderer *views.Renderer) *NoteHandler {
	return &NoteHandler{
		notes:   notes,
		avatars: avatars,
		views:   renderer,
	}
}

// NoteRouter registers the authenticated note routes.
func NoteRouter(r chi.Router, handler *NoteHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.With(NoCache).Get("/", handler.Index)
		r.Post("/post", handler.Create)
		r.Post("/edit/{id}/", handler.Edit)
		r.Post("/delete/{id}/", handler.Delete)
	})
	r.Get("/avatars/{key}", handler.Avatar)
}

// Index renders the current user's notes, most recently updated
// first.
func (h *NoteHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	notes, err := h.notes.List(r.Context(), user)
	if err != nil {
		logError("list notes", err)
		http.Error(w, "failed to load notes", http.StatusInternalServerError)
		return
	}

	h.views.Index(w, views.IndexData{User: user, Notes: notes})
}

// Create posts a new note. Empty submissions are silently dropped.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if _, err := h.notes.Create(r.Context(), user, r.FormValue("post")); err != nil {
		logError("create note", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Edit updates a note the user owns. A missing or foreign id changes
// nothing; the response redirects either way.
func (h *NoteHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if id, err := noteID(r); err == nil {
		if err := h.notes.Edit(r.Context(), user, id, r.FormValue("content")); err != nil && !errors.Is(err, store.ErrNotFound) {
			logError("edit note", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes a note with the same semantics as Edit.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if id, err := noteID(r); err == nil {
		if err := h.notes.Delete(r.Context(), user, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			logError("delete note", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Avatar streams a stored avatar image.
func (h *NoteHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	reader, err := h.avatars.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			http.NotFound(w, r)
			return
		}
		logError("open avatar", err)
		http.Error(w, "failed to load avatar", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, reader); err != nil {
		logError("serve avatar", err)
	}
}

func noteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
