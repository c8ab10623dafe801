// Package api exposes the MCP tool surface over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govinv/internal/config"
	"govinv/internal/mcp"
)

// Pinger reports whether the inventory store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	router *chi.Mux
	server *http.Server
	addr   string
	logger *slog.Logger
	tools  *mcp.MCPServer
	store  Pinger
}

// NewServer creates a new HTTP server instance. store may be nil, in which
// case /health reports the store as unconfigured.
func NewServer(cfg config.ServerConfig, tools *mcp.MCPServer, store Pinger, logger *slog.Logger) *Server {
	s := &Server{
		addr:   cfg.Addr,
		logger: logger,
		tools:  tools,
		store:  store,
		router: chi.NewRouter(),
	}

	s.router.Use(
		CORSMiddleware(cfg.CORSOrigins),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
	)
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Maintenance runs can take minutes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
