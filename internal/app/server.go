package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/inventra/internal/api/handlers"
	"github.com/markdave123-py/inventra/internal/config"
	"github.com/markdave123-py/inventra/internal/logger"
)

// Uploads wait for recognition and enrichment of every file, so they get a much longer budget.
const (
	requestTimeout = 60 * time.Second
	ingestTimeout  = 30 * time.Minute
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log *logger.Logger, inv *handlers.InventoryHandler, search *handlers.SearchHandler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", handlers.HealthCheck)

	r.Group(func(quick chi.Router) {
		quick.Use(middleware.Timeout(requestTimeout))
		quick.Get("/", inv.Form)
		quick.Post("/upload", inv.Form)
		quick.Post("/ask-question", search.AskQuestion)
		quick.Get("/check-tables", inv.CheckTables)
		quick.Get("/documents/{name}", inv.GetDocument)
	})

	r.Group(func(slow chi.Router) {
		slow.Use(middleware.Timeout(ingestTimeout))
		slow.Post("/", inv.Upload)
		slow.Post("/load-synthetic", inv.LoadSynthetic)
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
