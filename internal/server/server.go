package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/notedesk/server/config"
	"github.com/notedesk/server/internal/db"
	"github.com/notedesk/server/internal/events"
	"github.com/notedesk/server/internal/handlers"
	"github.com/notedesk/server/internal/services"
	"github.com/notedesk/server/internal/session"
	"github.com/notedesk/server/internal/storage"
	"github.com/notedesk/server/internal/store"
	"github.com/notedesk/server/internal/store/jsonfile"
	"github.com/notedesk/server/internal/views"
)

// Server wraps the HTTP server, router and shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New constructs a Server with all dependencies wired from config.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	secret := strings.TrimSpace(cfg.Session.Secret)
	if secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)

	sessions, err := newSessionResolver(cfg, dbConn, userRepo, secret)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	noteStore, err := newNoteStore(cfg, dbConn)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	avatarStorage, err := newAvatarStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := newEventPublisher(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	avatarService := services.NewAvatarService(avatarStorage)
	authService := services.NewAuthService(userRepo, avatarService)
	noteService := services.NewNoteService(noteStore, publisher)

	renderer, err := views.New()
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Handle("/static/*", views.StaticHandler())

	handlers.AuthRouter(router, handlers.NewAuthHandler(authService, sessions, renderer))
	handlers.GoogleRouter(router, handlers.NewGoogleHandler(authService, sessions, renderer, cfg.Google))
	handlers.NoteRouter(router, handlers.NewNoteHandler(noteService, avatarService, renderer), handlers.RequireAuth(sessions))

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newSessionResolver(cfg config.Config, dbConn *sql.DB, userRepo *store.UserRepository, secret string) (session.Resolver, error) {
	switch cfg.Session.Backend {
	case "cookie":
		return session.NewCookieResolver(secret, userRepo, cfg.Production()), nil
	case "store":
		return session.NewStoreResolver(store.NewSessionRepository(dbConn), userRepo, cfg.Production()), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

func newNoteStore(cfg config.Config, dbConn *sql.DB) (services.NoteStore, error) {
	switch cfg.Notes.Backend {
	case "postgres":
		return store.NewNoteRepository(dbConn), nil
	case "file":
		return jsonfile.Open(cfg.Notes.File)
	default:
		return nil, fmt.Errorf("unknown notes backend %q", cfg.Notes.Backend)
	}
}

func newAvatarStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var (
		backend storage.ObjectStorage
		err     error
	)
	switch cfg.Avatar.Backend {
	case "local":
		backend, err = storage.NewLocalClient(cfg.Avatar.Dir)
	case "minio":
		backend, err = storage.NewMinioClient(cfg.Avatar.Minio)
	case "gcs":
		backend, err = storage.NewGCSClient(ctx, cfg.Avatar.GCS)
	default:
		return nil, fmt.Errorf("unknown avatar backend %q", cfg.Avatar.Backend)
	}
	if err != nil {
		return nil, err
	}

	wrapped := storage.NewStorage(backend)
	if err := wrapped.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("prepare avatar storage: %w", err)
	}
	return wrapped, nil
}

func newEventPublisher(ctx context.Context, cfg config.Config) (*events.Publisher, error) {
	switch cfg.Events.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := events.NewRabbitMQClient(cfg.Events.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Events.Topic), nil
	case "pubsub":
		backend, err := events.NewPubSubClient(ctx, cfg.Events.PubSubProjectID)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Events.Topic), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}
