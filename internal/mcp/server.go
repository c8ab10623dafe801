package mcp

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"govinv/internal/config"
	"govinv/internal/governance"
	"govinv/internal/impact"
	"govinv/internal/inventory"
	"govinv/internal/lifecycle"
	"govinv/internal/portfolio"
	"govinv/internal/storage"
)

// Services bundles the engine components that tools dispatch to.
type Services struct {
	Governance *governance.Service
	Inventory  *inventory.Service
	Impact     *impact.Analyzer
	Portfolio  *portfolio.Service
	Lifecycle  *lifecycle.Coordinator
}

// NewServices wires every component over one store handle and one
// maintenance runner.
func NewServices(store storage.Querier, runner lifecycle.Runner, cfg *config.Config, logger *slog.Logger) *Services {
	return &Services{
		Governance: governance.NewService(store, logger.With("component", "governance")),
		Inventory: inventory.NewService(store, logger.With("component", "inventory"), inventory.Options{
			CachePath:      cfg.Inventory.CachePath,
			MaxSearchLimit: cfg.Inventory.MaxSearchLimit,
			RecentWindow:   time.Duration(cfg.Inventory.RecentChangesMinutes) * time.Minute,
		}),
		Impact:    impact.NewAnalyzer(store, logger.With("component", "impact")),
		Portfolio: portfolio.NewService(store, logger.With("component", "portfolio")),
		Lifecycle: lifecycle.NewCoordinator(runner, cfg.Lifecycle.WorkDir, logger.With("component", "lifecycle")),
	}
}

// MCPServer serves the tool catalogue over stdio.
type MCPServer struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	writeMu sync.Mutex
	logger  *slog.Logger
	version string

	svc   *Services
	tools map[string]ToolHandler
}

// NewMCPServer creates a server reading stdin and writing stdout.
func NewMCPServer(version string, svc *Services, logger *slog.Logger) *MCPServer {
	server := &MCPServer{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		logger:  logger,
		version: version,
		svc:     svc,
		tools:   make(map[string]ToolHandler),
	}
	server.RegisterTools()
	return server
}

// NewMCPServerForCLI creates a server that can describe its tools but not run them.
func NewMCPServerForCLI() *MCPServer {
	return &MCPServer{tools: make(map[string]ToolHandler)}
}

// Start processes messages until stdin is exhausted or ctx is cancelled.
// Requests are handled one at a time.
func (s *MCPServer) Start(ctx context.Context) error {
	s.logger.Info("MCP server starting", "version", s.version, "tools", len(s.tools))

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("MCP server shutting down", "reason", err.Error())
			return nil
		}

		msg, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.logger.Info("MCP server shutting down (EOF)")
				return nil
			}
			var malformed errMalformed
			if stderrors.As(err, &malformed) {
				s.logger.Warn("Discarding malformed message", "error", err.Error())
				_ = s.writeError(nil, ParseError, fmt.Sprintf("Failed to parse message: %v", malformed.err))
				continue
			}
			return err
		}

		response := s.handleMessage(ctx, msg)
		if response != nil {
			if err := s.writeMessage(response); err != nil {
				s.logger.Error("Error writing response", "error", err.Error())
			}
		}
	}
}

// SetStdin sets the input stream (for testing)
func (s *MCPServer) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout sets the output stream (for testing)
func (s *MCPServer) SetStdout(w io.Writer) {
	s.stdout = w
}

// HandleMessage answers a single JSON-RPC message. It returns nil for
// notifications.
func (s *MCPServer) HandleMessage(ctx context.Context, msg *MCPMessage) *MCPMessage {
	return s.handleMessage(ctx, msg)
}
