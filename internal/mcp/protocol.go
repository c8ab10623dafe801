package mcp

import "encoding/json"

// JSONRPCVersion is the only protocol version spoken.
const JSONRPCVersion = "2.0"

// ProtocolVersion is the MCP revision announced in initialize.
const ProtocolVersion = "2024-11-05"

// MCPMessage is a newline-delimited JSON-RPC 2.0 message.
type MCPMessage struct {
	Jsonrpc string    `json:"jsonrpc"`
	Id      any       `json:"id,omitempty"`
	Method  string    `json:"method,omitempty"`
	Params  any       `json:"params,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *MCPError `json:"error,omitempty"`
}

// MCPError is a JSON-RPC 2.0 error object.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface
func (e *MCPError) Error() string {
	return e.Message
}

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// NewErrorMessage creates an error response.
func NewErrorMessage(id any, code int, message string, data any) *MCPMessage {
	return &MCPMessage{
		Jsonrpc: JSONRPCVersion,
		Id:      id,
		Error:   &MCPError{Code: code, Message: message, Data: data},
	}
}

// NewResultMessage creates a result response.
func NewResultMessage(id any, result any) *MCPMessage {
	return &MCPMessage{Jsonrpc: JSONRPCVersion, Id: id, Result: result}
}

// IsRequest checks if the message is a request
func (m *MCPMessage) IsRequest() bool {
	return m.Method != "" && m.Id != nil
}

// IsNotification checks if the message is a notification
func (m *MCPMessage) IsNotification() bool {
	return m.Method != "" && m.Id == nil
}

// ParseMessage decodes one JSON-RPC message.
func ParseMessage(data []byte) (*MCPMessage, error) {
	var msg MCPMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// paramsObject returns the params as an object, or an empty one.
func (m *MCPMessage) paramsObject() (map[string]any, bool) {
	if m.Params == nil {
		return map[string]any{}, true
	}
	p, ok := m.Params.(map[string]any)
	return p, ok
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result of tools/call. The text block holds the
// envelope JSON; IsError mirrors the envelope's error field.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}
