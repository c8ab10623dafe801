package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govinv/internal/mcp"
	"govinv/internal/version"
)

const maxBodyBytes = 1 << 20

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/tools", s.handleListTools)
	s.router.Post("/tools/{name}", s.handleCallTool)
	s.router.Post("/rpc", s.handleRPC)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   version.Version,
		Store:     "ok",
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK
	switch {
	case s.store == nil:
		resp.Store = "unconfigured"
	default:
		if err := s.store.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Store = "unavailable"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	WriteJSON(w, resp, status)
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, map[string]any{"tools": s.tools.GetToolDefinitions()}, http.StatusOK)
}

// handleCallTool runs one tool. The body is the tool's argument object and
// may be empty.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		BadRequest(w, "failed to read request body")
		return
	}
	args := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			BadRequest(w, "request body must be a JSON object")
			return
		}
		if args == nil {
			args = map[string]any{}
		}
	}

	s.logger.Debug("Tool call over HTTP", "tool", name, "requestID", GetRequestID(r.Context()))
	WriteEnvelope(w, s.tools.CallTool(r.Context(), name, args))
}

// handleRPC accepts a single JSON-RPC message, the same as one stdio line.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		BadRequest(w, "failed to read request body")
		return
	}
	msg, err := mcp.ParseMessage(body)
	if err != nil {
		WriteJSON(w, mcp.NewErrorMessage(nil, mcp.ParseError, "Parse error", err.Error()), http.StatusOK)
		return
	}
	resp := s.tools.HandleMessage(r.Context(), msg)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, resp, http.StatusOK)
}
