package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"govinv/internal/envelope"
	"govinv/internal/errors"
)

// handleMessage processes an incoming MCP message and returns a response
func (s *MCPServer) handleMessage(ctx context.Context, msg *MCPMessage) *MCPMessage {
	if msg.Jsonrpc != JSONRPCVersion {
		return NewErrorMessage(msg.Id, InvalidRequest, "Invalid request: jsonrpc must be \"2.0\"", nil)
	}
	if msg.IsRequest() {
		return s.handleRequest(ctx, msg)
	}
	if msg.IsNotification() {
		s.handleNotification(msg)
		return nil
	}
	return NewErrorMessage(msg.Id, InvalidRequest, "Invalid message: not a request or notification", nil)
}

// handleRequest handles a JSON-RPC request
func (s *MCPServer) handleRequest(ctx context.Context, msg *MCPMessage) *MCPMessage {
	s.logger.Debug("Handling request", "method", msg.Method, "id", msg.Id)

	params, ok := msg.paramsObject()
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "Invalid params: expected object", nil)
	}

	switch msg.Method {
	case "initialize":
		return NewResultMessage(msg.Id, s.handleInitialize(params))
	case "ping":
		return NewResultMessage(msg.Id, map[string]any{})
	case "tools/list":
		return NewResultMessage(msg.Id, map[string]any{"tools": s.GetToolDefinitions()})
	case "tools/call":
		return s.handleCallToolRequest(ctx, msg, params)
	default:
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method), nil)
	}
}

// handleNotification handles a JSON-RPC notification
func (s *MCPServer) handleNotification(msg *MCPMessage) {
	switch msg.Method {
	case "notifications/initialized":
		s.logger.Info("Client initialized")
	default:
		s.logger.Debug("Unknown notification", "method", msg.Method)
	}
}

// handleCallToolRequest handles the tools/call request
func (s *MCPServer) handleCallToolRequest(ctx context.Context, msg *MCPMessage, params map[string]any) *MCPMessage {
	name, ok := params["name"].(string)
	if !ok || name == "" {
		return NewErrorMessage(msg.Id, InvalidParams, "Invalid params: tool name is required", nil)
	}
	args, ok := params["arguments"].(map[string]any)
	if !ok {
		args = map[string]any{}
	}

	result, err := EncodeToolResult(s.CallTool(ctx, name, args))
	if err != nil {
		return NewErrorMessage(msg.Id, InternalError, err.Error(), nil)
	}
	return NewResultMessage(msg.Id, result)
}

// CallTool runs the named tool and always returns an envelope. Failures,
// including unknown tools, are reported in the envelope's error field with
// the received arguments as the applied query.
func (s *MCPServer) CallTool(ctx context.Context, name string, args map[string]any) *envelope.Response {
	start := time.Now()
	handler, exists := s.tools[name]
	if !exists {
		return envelope.New().Tool(name).Query(args).Error(errors.NewNotFound("tool", name)).Build()
	}

	s.logger.Info("Calling tool", "tool", name, "params", args)

	resp, err := handler(ctx, args)
	if err != nil {
		s.logger.Warn("Tool failed",
			"tool", name,
			"code", string(errors.CodeOf(err)),
			"error", err.Error(),
			"duration", time.Since(start),
		)
		return envelope.New().Tool(name).Query(args).Error(err).Build()
	}
	resp.Meta.Tool = name
	s.logger.Debug("Tool completed", "tool", name, "duration", time.Since(start))
	return resp
}

// EncodeToolResult wraps an envelope in a text content block.
func EncodeToolResult(resp *envelope.Response) (*ToolResult, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &ToolResult{
		Content: []Content{{Type: "text", Text: string(data)}},
		IsError: resp.Failed(),
	}, nil
}
