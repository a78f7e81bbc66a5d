// Package api provides the HTTP front end of Pathfinder.
//
// It serves the server-rendered roadmap page for browser sessions and a small JSON API over the
// same session controllers. Each browser session owns one flow.Controller kept in the store.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/BTreeMap/Pathfinder/internal/flow"
	"github.com/BTreeMap/Pathfinder/internal/genai"
	"github.com/BTreeMap/Pathfinder/internal/store"
)

// Default values for API server configuration
const (
	DefaultServerAddress   = ":8080"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultReadTimeout     = 15 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Option defines a function that configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithShutdownTimeout bounds how long in-flight requests may run after shutdown starts.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.ShutdownTimeout = d
	}
}

// Server wires the session store and the generator to HTTP handlers.
type Server struct {
	gen      genai.Generator
	sessions *store.SessionStore
	pages    *renderer
	router   *mux.Router
	addr     string
	shutdown time.Duration
}

// NewServer creates a server that generates roadmaps with gen. Each new session gets its own
// controller sharing gen.
func NewServer(gen genai.Generator, storeOpts []store.Option, opts ...Option) (*Server, error) {
	cfg := Opts{
		Addr:            DefaultServerAddress,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultServerAddress
	}

	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		gen:      gen,
		sessions: store.NewSessionStore(func() *flow.Controller { return flow.NewController(gen) }, storeOpts...),
		pages:    pages,
		addr:     cfg.Addr,
		shutdown: cfg.ShutdownTimeout,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLogger, s.recoverer)

	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)

	r.HandleFunc("/", s.newSessionHandler).Methods(http.MethodGet)
	r.HandleFunc("/s/{id}", s.pageHandler).Methods(http.MethodGet)
	r.HandleFunc("/s/{id}/submit", s.submitFormHandler).Methods(http.MethodPost)
	r.HandleFunc("/s/{id}/retry", s.retryHandler).Methods(http.MethodPost)
	r.HandleFunc("/s/{id}/phases/{phaseID}/toggle", s.togglePageHandler).Methods(http.MethodPost)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/roadmaps", s.generateRoadmapHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sessions", s.createSessionHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sessions/{id}", s.getSessionHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/sessions/{id}/fields/{name}", s.updateFieldHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/sessions/{id}/submit", s.submitSessionHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sessions/{id}/phases/{phaseID}/toggle", s.togglePhaseHandler).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(s.notFoundHandler)
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions exposes the session store.
func (s *Server) Sessions() *store.SessionStore {
	return s.sessions
}

// Serve listens on the configured address until ctx is cancelled, then shuts down gracefully.
// The session janitor runs for the lifetime of the server.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.sessions.Run(ctx)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: DefaultReadTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Serve: listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Server.Serve: shutting down", "timeout", s.shutdown)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.shutdown)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	slog.Info("Server.Serve: stopped")
	return nil
}

// Run builds the generator and the server from options and serves until SIGINT or SIGTERM.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	gen, err := genai.New(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}
	srv, err := NewServer(gen, storeOpts, apiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}
