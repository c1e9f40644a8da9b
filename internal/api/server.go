// Package api exposes the container and the goods-receipt feature over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/grdesk/internal/events"
	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Config wires the server to the rest of the process.
type Config struct {
	Addr      string
	Container store.Container
	Bus       *events.Bus
	// Receipts enables the /goods-receipts routes when set.
	Receipts *ReceiptsSurface
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
	// RequestTimeout bounds every route except the event stream.
	RequestTimeout time.Duration
}

// Server represents the API server.
type Server struct {
	Addr   string
	cfg    Config
	router *chi.Mux
	server *http.Server
	errs   *ferrors.HTTPErrorAdapter
	logger *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		Addr:   cfg.Addr,
		cfg:    cfg,
		router: chi.NewRouter(),
		errs:   ferrors.NewHTTPErrorAdapter(cfg.Logger),
		logger: cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestContext)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger, s.errs))

	s.router.Get("/health", s.handleHealth)

	// The event stream stays open, so it is registered outside the timeout group.
	if s.cfg.Bus != nil {
		s.router.Get("/events", s.handleEvents)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Get("/state", s.handleState)
		r.Get("/state/{key}", s.handleSlice)
		r.Get("/modules", s.handleModules)
		r.Post("/actions", s.handleDispatch)

		if s.cfg.Receipts != nil {
			r.Route("/goods-receipts", s.cfg.Receipts.routes(s))
		}
	})

	if s.cfg.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}
}

// Start serves until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	s.logger.Info("API server listening", slog.String("addr", s.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// Fail renders err through the classified error adapter.
func (s *Server) Fail(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.WriteErrorResponse(w, r, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
