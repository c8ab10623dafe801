package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"govinv/internal/config"
	"govinv/internal/lifecycle"
	"govinv/internal/slogutil"
	"govinv/internal/testutil"
	"govinv/internal/version"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, args []string) (*lifecycle.Invocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, args)
	return &lifecycle.Invocation{Args: args, Stdout: "✅ Maintenance completed successfully\n"}, nil
}

func fixtureInventory() testutil.Inventory {
	return testutil.Inventory{
		Directories: []testutil.Directory{
			{Path: "/repo", ArtifactCount: 2, PrimaryType: "policy", Score: 70},
			{Path: "/repo/app", ArtifactCount: 1, PrimaryType: "policy", Score: 40, ProjectType: "revenue_stream", ProjectConfidence: testutil.Float(0.9)},
		},
		Artifacts: []testutil.Artifact{
			{Path: "/repo/app/POLICY.md", Primary: "policy", Level: "high", Scores: map[string]float64{"policy": 0.9}},
			{Path: "/repo/CODEOWNERS", Primary: "ownership", Level: "medium"},
		},
		Dependencies: []testutil.Dependency{
			{Source: "/repo", Target: "/repo/app"},
		},
	}
}

// newTestMCPServer creates an MCP server over a fixture inventory
func newTestMCPServer(t *testing.T) (*MCPServer, *recordingRunner) {
	t.Helper()
	logger := slogutil.NewDiscardLogger()
	runner := &recordingRunner{}
	svc := NewServices(testutil.NewStore(t, fixtureInventory()), runner, config.DefaultConfig(), logger)
	return NewMCPServer(version.Version, svc, logger), runner
}

// sendRequest sends a request and returns the response
func sendRequest(t *testing.T, server *MCPServer, method string, id int, params any) *MCPMessage {
	t.Helper()

	request := MCPMessage{Jsonrpc: JSONRPCVersion, Id: id, Method: method, Params: params}
	requestBytes, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	server.SetStdin(bytes.NewReader(append(requestBytes, '\n')))
	server.SetStdout(&bytes.Buffer{})

	msg, err := server.readMessage()
	if err != nil && err != io.EOF {
		t.Fatalf("Failed to read message: %v", err)
	}
	return server.handleMessage(context.Background(), msg)
}

type decodedEnvelope struct {
	Data map[string]any `json:"data"`
	Meta struct {
		Tool  string         `json:"tool"`
		Query map[string]any `json:"query"`
	} `json:"meta"`
	Warnings []struct {
		Code string `json:"code"`
	} `json:"warnings"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// callTool runs tools/call and decodes the envelope from the text block
func callTool(t *testing.T, server *MCPServer, name string, args map[string]any) (*ToolResult, decodedEnvelope) {
	t.Helper()
	resp := sendRequest(t, server, "tools/call", 1, map[string]any{"name": name, "arguments": args})
	if resp.Error != nil {
		t.Fatalf("tools/call returned JSON-RPC error: %v", resp.Error.Message)
	}
	result, ok := resp.Result.(*ToolResult)
	if !ok {
		t.Fatalf("Result should be *ToolResult, got %T", resp.Result)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("Content = %+v, want one text block", result.Content)
	}
	var env decodedEnvelope
	if err := json.Unmarshal([]byte(result.Content[0].Text), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return result, env
}

func TestMCPServerCreation(t *testing.T) {
	server, _ := newTestMCPServer(t)

	defs := server.GetToolDefinitions()
	if len(defs) != 18 {
		t.Errorf("len(GetToolDefinitions()) = %d, want 18", len(defs))
	}
	if len(server.tools) != len(defs) {
		t.Errorf("registered %d handlers for %d definitions", len(server.tools), len(defs))
	}
	for _, d := range defs {
		if _, ok := server.tools[d.Name]; !ok {
			t.Errorf("tool %q has no handler", d.Name)
		}
		if d.Description == "" || d.InputSchema == nil {
			t.Errorf("tool %q is missing description or schema", d.Name)
		}
	}
}

func TestInitializeMethod(t *testing.T) {
	server, _ := newTestMCPServer(t)

	response := sendRequest(t, server, "initialize", 1, map[string]any{
		"protocolVersion": ProtocolVersion,
		"clientInfo":      map[string]any{"name": "test-client", "version": "1.0.0"},
	})
	if response.Error != nil {
		t.Fatalf("Should not have error: %v", response.Error.Message)
	}
	result, ok := response.Result.(*InitializeResult)
	if !ok {
		t.Fatalf("Result should be an InitializeResult, got %T", response.Result)
	}
	if result.ServerInfo.Name != version.ServerName {
		t.Errorf("serverInfo.name = %q, want %q", result.ServerInfo.Name, version.ServerName)
	}
	if result.Capabilities.Tools == nil {
		t.Error("Result should advertise the tools capability")
	}
}

func TestPingAndUnknownMethod(t *testing.T) {
	server, _ := newTestMCPServer(t)

	if resp := sendRequest(t, server, "ping", 1, nil); resp.Error != nil {
		t.Errorf("ping error = %v", resp.Error.Message)
	}
	resp := sendRequest(t, server, "resources/list", 2, nil)
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Errorf("resources/list error = %+v, want code %d", resp.Error, MethodNotFound)
	}
}

func TestToolsListMethod(t *testing.T) {
	server, _ := newTestMCPServer(t)

	response := sendRequest(t, server, "tools/list", 1, nil)
	result, ok := response.Result.(map[string]any)
	if !ok {
		t.Fatalf("Result should be a map, got %T", response.Result)
	}
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatalf("Tools should be []Tool, got %T", result["tools"])
	}
	if len(tools) != 18 {
		t.Errorf("len(tools) = %d, want 18", len(tools))
	}
}

func TestCallToolGovernanceContext(t *testing.T) {
	server, _ := newTestMCPServer(t)

	result, env := callTool(t, server, "get_governance_context", map[string]any{"path": "/repo/app/"})
	if result.IsError {
		t.Fatalf("IsError = true, envelope error = %+v", env.Error)
	}
	if env.Meta.Tool != "get_governance_context" {
		t.Errorf("meta.tool = %q", env.Meta.Tool)
	}
	if env.Meta.Query["path"] != "/repo/app" {
		t.Errorf("meta.query.path = %v, want normalized /repo/app", env.Meta.Query["path"])
	}
	if env.Data["matchType"] != "exact" {
		t.Errorf("matchType = %v, want exact", env.Data["matchType"])
	}
}

func TestCallToolArgumentSpellings(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"camelCase", map[string]any{"targetPaths": []any{"/repo/app"}, "changeType": "delete"}},
		{"snake_case", map[string]any{"target_paths": []any{"/repo/app"}, "change_type": "delete"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestMCPServer(t)
			result, env := callTool(t, server, "analyze_impact", tt.args)
			if result.IsError {
				t.Fatalf("IsError = true, envelope error = %+v", env.Error)
			}
			if env.Data["changeType"] != "delete" {
				t.Errorf("changeType = %v, want delete", env.Data["changeType"])
			}
		})
	}
}

func TestCallToolFailures(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		wantCode string
	}{
		{"unknown tool", "drop_tables", map[string]any{}, "NOT_FOUND"},
		{"bad change type", "analyze_governance_impact", map[string]any{"paths": []any{"/repo"}, "changeType": "rename"}, "INVALID_ARGUMENT"},
		{"missing path", "get_inventory_context", map[string]any{}, "INVALID_ARGUMENT"},
		{"wrong type", "search_inventory", map[string]any{"limit": "ten"}, "INVALID_ARGUMENT"},
		{"fractional limit", "search_inventory", map[string]any{"limit": 2.5}, "INVALID_ARGUMENT"},
		{"bad direction", "get_dependencies", map[string]any{"path": "/repo", "direction": "sideways"}, "INVALID_ARGUMENT"},
		{"zero max age", "cleanup_governance_artifacts", map[string]any{"maxAgeDays": 0.0}, "INVALID_ARGUMENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestMCPServer(t)
			result, env := callTool(t, server, tt.tool, tt.args)
			if !result.IsError {
				t.Fatal("IsError = false, want true")
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if env.Meta.Query == nil {
				t.Error("meta.query should echo the received arguments")
			}
		})
	}
}

func TestMaintenanceDryRunDefault(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]any
		wantDryRun bool
	}{
		{"default", map[string]any{}, true},
		{"explicit apply", map[string]any{"dryRun": false}, false},
		{"snake_case", map[string]any{"dry_run": false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, runner := newTestMCPServer(t)
			result, env := callTool(t, server, "run_automated_maintenance", tt.args)
			if result.IsError {
				t.Fatalf("IsError = true, envelope error = %+v", env.Error)
			}
			args := strings.Join(runner.calls[0], " ")
			if got := strings.Contains(args, lifecycle.FlagDryRun); got != tt.wantDryRun {
				t.Errorf("args %q contain --dry-run = %v, want %v", args, got, tt.wantDryRun)
			}
			if env.Meta.Query["dryRun"] != tt.wantDryRun {
				t.Errorf("meta.query.dryRun = %v, want %v", env.Meta.Query["dryRun"], tt.wantDryRun)
			}
		})
	}
}

func TestStartLoop(t *testing.T) {
	server, _ := newTestMCPServer(t)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`not json`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_inventory_stats"}}`,
	}, "\n") + "\n"
	out := &bytes.Buffer{}
	server.SetStdin(strings.NewReader(input))
	server.SetStdout(out)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d responses, want 3:\n%s", len(lines), out.String())
	}
	var parseErr MCPMessage
	if err := json.Unmarshal([]byte(lines[1]), &parseErr); err != nil {
		t.Fatal(err)
	}
	if parseErr.Error == nil || parseErr.Error.Code != ParseError {
		t.Errorf("second response = %s, want a parse error", lines[1])
	}
	if !strings.Contains(lines[2], `"id":2`) || strings.Contains(lines[2], `"isError":true`) {
		t.Errorf("third response = %s, want a successful tools/call", lines[2])
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"path":                "path",
		"targetPaths":         "target_paths",
		"specialHandlingType": "special_handling_type",
		"maxAgeDays":          "max_age_days",
	}
	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
