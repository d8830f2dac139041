package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/systems2beyond/bethel-social-sub005/internal/ingest"
	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// Ingestor runs a single source through ingestion.
type Ingestor interface {
	Ingest(ctx context.Context, src models.Source) (*ingest.Result, error)
}

// Pinger reports whether the chunk store is reachable.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// Config holds HTTP server configuration.
type Config struct {
	Addr           string
	JWTSecret      string
	AllowedOrigins []string
}

// Server exposes the ingestion API over HTTP.
type Server struct {
	httpServer *http.Server
	engine     Ingestor
	publisher  message.Publisher
	store      Pinger
	jwtSecret  []byte
}

// NewServer builds the router and wires all routes.
func NewServer(config Config, engine Ingestor, publisher message.Publisher, store Pinger) *Server {
	s := &Server{
		engine:    engine,
		publisher: publisher,
		store:     store,
		jwtSecret: []byte(config.JWTSecret),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if len(config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.requireAuth)
		api.Post("/ingest", s.handleIngest)
		api.Post("/hooks/post-change", s.handlePostChange)
	})

	s.httpServer = &http.Server{
		Addr:    config.Addr,
		Handler: r,
	}
	return s
}

// Handler returns the underlying router, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
