// Package views renders the server-side HTML pages from embedded
// templates.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/notedesk/server/types"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer holds the parsed page templates.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"datefmt": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: templates}, nil
}

// IndexData is the payload of the note list page.
type IndexData struct {
	User  types.User
	Notes []types.Note
}

// FormData is the payload of the login and register pages.
type FormData struct {
	Error string
}

// Index renders the note list.
func (r *Renderer) Index(w http.ResponseWriter, data IndexData) {
	r.render(w, "index.html", data)
}

// Login renders the login form, optionally with an error message.
func (r *Renderer) Login(w http.ResponseWriter, data FormData) {
	r.render(w, "login.html", data)
}

// Register renders the registration form, optionally with an error
// message.
func (r *Renderer) Register(w http.ResponseWriter, data FormData) {
	r.render(w, "register.html", data)
}

// StaticHandler serves the embedded static assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (r *Renderer) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := r.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}
