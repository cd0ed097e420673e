// Package server exposes the resolution engine over HTTP: a resolve
// endpoint for ad-hoc requests, a WebSocket feed of the watched plan,
// and auth-protected status and history endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/lineup/internal/engine"
	"github.com/flemzord/lineup/internal/history"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server settings.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string

	// AuthToken protects the admin endpoints. Empty disables them.
	AuthToken string
}

// Server is the lineup HTTP service.
type Server struct {
	cfg     Config
	engine  *engine.Engine
	store   history.Store // nil when history is disabled
	hub     *Hub
	metrics *Metrics
	logger  *slog.Logger

	httpServer *http.Server

	mu      sync.RWMutex
	current *engine.Plan // latest plan from the watched manifest
}

// New creates a Server. store may be nil to disable history endpoints.
func New(cfg Config, eng *engine.Engine, store history.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")
	return &Server{
		cfg:     cfg,
		engine:  eng,
		store:   store,
		hub:     NewHub(logger),
		metrics: &Metrics{},
		logger:  logger,
	}
}

// Handler returns the HTTP handler with all routes wired.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", s.handleHealth())
	r.Post("/v1/resolve", s.handleResolve())
	r.Get("/ws/plan", s.hub.handleWS)

	// Admin endpoints — auth required. Not mounted if no token configured.
	if s.cfg.AuthToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.cfg.AuthToken))
			r.Get("/status", s.handleStatus())
			r.Get("/v1/history", s.handleHistory())
		})
	}

	return r
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server: serve failed", "error", err)
		}
	}()

	s.logger.Info("server: listening", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// SetPlan publishes a freshly resolved plan: it becomes the current plan
// reported by /health and is broadcast to WebSocket subscribers.
func (s *Server) SetPlan(plan *engine.Plan) {
	s.mu.Lock()
	s.current = plan
	s.mu.Unlock()

	s.hub.Broadcast(planPayload(plan))
}

func (s *Server) currentPlan() *engine.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// planPayload is the wire shape shared by /v1/resolve responses and
// WebSocket broadcasts.
func planPayload(plan *engine.Plan) map[string]any {
	return map[string]any{
		"steps":       plan.Steps,
		"fingerprint": plan.Fingerprint(),
		"resolved_at": plan.ResolvedAt,
		"duration_ns": plan.Duration,
	}
}
