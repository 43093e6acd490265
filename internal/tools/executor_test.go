package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mcpcourse/mcpchat/internal/config"
	"github.com/mcpcourse/mcpchat/internal/mcp"
)

func testConfig(servers ...config.ServerConfig) *config.Config {
	return &config.Config{Servers: servers}
}

// decodeError extracts the message from a JSON error result, failing the
// test if the text is not the expected shape.
func decodeError(t *testing.T, text string) string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("result %q is not a JSON error object: %v", text, err)
	}
	msg, ok := m["error"]
	if !ok {
		t.Fatalf("result %q has no error key", text)
	}
	return msg
}

// --- Rebuild / InitializeTools Tests ---

func TestRebuildFlattensInOrder(t *testing.T) {
	e := NewExecutor(testConfig(), nil)

	records := []mcp.ServerTools{
		{Server: "weather", Tools: []mcp.ToolInfo{
			{Name: "get_weather", Description: "Get weather", InputSchema: map[string]any{"type": "object"}},
			{Name: "calculate", Description: "Do math", InputSchema: map[string]any{"type": "object"}},
		}},
		{Server: "files", Tools: []mcp.ToolInfo{
			{Name: "read_file", Description: "Read a file", InputSchema: map[string]any{"type": "object"}},
		}},
	}

	defs := e.rebuild(records)

	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	wantOrder := []string{"get_weather", "calculate", "read_file"}
	for i, name := range wantOrder {
		if defs[i].Name != name {
			t.Errorf("defs[%d].Name = %q, want %q", i, defs[i].Name, name)
		}
	}

	if e.routes["get_weather"] != "weather" {
		t.Errorf("route for get_weather = %q, want weather", e.routes["get_weather"])
	}
	if e.routes["read_file"] != "files" {
		t.Errorf("route for read_file = %q, want files", e.routes["read_file"])
	}
}

func TestRebuildSkipsFailedServers(t *testing.T) {
	e := NewExecutor(testConfig(), nil)

	records := []mcp.ServerTools{
		{Server: "broken", Err: context.DeadlineExceeded},
		{Server: "working", Tools: []mcp.ToolInfo{
			{Name: "search", Description: "Search", InputSchema: map[string]any{"type": "object"}},
		}},
	}

	defs := e.rebuild(records)

	if len(defs) != 1 || defs[0].Name != "search" {
		t.Fatalf("defs = %+v, want only the working server's tool", defs)
	}
	if _, routed := e.routes["search"]; !routed {
		t.Error("expected route for search")
	}
}

func TestRebuildZeroToolServer(t *testing.T) {
	e := NewExecutor(testConfig(), nil)

	defs := e.rebuild([]mcp.ServerTools{{Server: "empty"}})
	if len(defs) != 0 {
		t.Errorf("expected no definitions from a zero-tool server, got %d", len(defs))
	}
}

func TestRebuildCollisionLastServerWins(t *testing.T) {
	e := NewExecutor(testConfig(), nil)

	records := []mcp.ServerTools{
		{Server: "alpha", Tools: []mcp.ToolInfo{
			{Name: "search", Description: "alpha search", InputSchema: map[string]any{"type": "object"}},
			{Name: "fetch", Description: "alpha fetch", InputSchema: map[string]any{"type": "object"}},
		}},
		{Server: "beta", Tools: []mcp.ToolInfo{
			{Name: "search", Description: "beta search", InputSchema: map[string]any{"type": "object"}},
		}},
	}

	defs := e.rebuild(records)

	// The colliding definition is replaced in place; no duplicates appear.
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions after collision, got %d", len(defs))
	}
	if defs[0].Name != "search" || defs[0].Description != "beta search" {
		t.Errorf("defs[0] = %+v, want beta's search at original position", defs[0])
	}
	if e.routes["search"] != "beta" {
		t.Errorf("route for search = %q, want beta", e.routes["search"])
	}
	if e.routes["fetch"] != "alpha" {
		t.Errorf("route for fetch = %q, want alpha", e.routes["fetch"])
	}
}

func TestInitializeToolsUnreachableServers(t *testing.T) {
	cfg := testConfig(
		config.ServerConfig{Name: "down", Command: "/nonexistent/server"},
	)
	e := NewExecutor(cfg, nil)
	e.DiscoveryTimeout = 5 * time.Second

	defs, err := e.InitializeTools(context.Background())
	if err != nil {
		t.Fatalf("InitializeTools() error = %v, want per-server resilience", err)
	}
	if len(defs) != 0 {
		t.Errorf("expected no definitions, got %d", len(defs))
	}
}

func TestInitializeToolsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExecutor(testConfig(), nil)
	if _, err := e.InitializeTools(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

// --- ExecuteTool Tests ---

func TestExecuteToolUnknownTool(t *testing.T) {
	e := NewExecutor(testConfig(), nil)

	result := e.ExecuteTool(context.Background(), "get_stock_price", `{}`)

	msg := decodeError(t, result)
	if msg != "Tool get_stock_price not found" {
		t.Errorf("error = %q, want 'Tool get_stock_price not found'", msg)
	}
}

func TestExecuteToolServerNotConfigured(t *testing.T) {
	e := NewExecutor(testConfig(), nil)
	e.routes["orphan"] = "ghost"

	result := e.ExecuteTool(context.Background(), "orphan", `{}`)

	msg := decodeError(t, result)
	if msg != "Server ghost not configured" {
		t.Errorf("error = %q, want 'Server ghost not configured'", msg)
	}
}

func TestExecuteToolMalformedArguments(t *testing.T) {
	cfg := testConfig(config.ServerConfig{Name: "srv", Command: "/nonexistent/server"})
	e := NewExecutor(cfg, nil)
	e.routes["broken_args"] = "srv"

	// Decoding fails before any connection attempt is made.
	result := e.ExecuteTool(context.Background(), "broken_args", `{"operator": `)

	msg := decodeError(t, result)
	if !strings.Contains(msg, "invalid arguments for tool broken_args") {
		t.Errorf("error = %q, want invalid-arguments context", msg)
	}
}

func TestExecuteToolConnectFailure(t *testing.T) {
	cfg := testConfig(config.ServerConfig{Name: "srv", Command: "/nonexistent/server"})
	e := NewExecutor(cfg, nil)
	e.CallTimeout = 5 * time.Second
	e.routes["remote_tool"] = "srv"

	result := e.ExecuteTool(context.Background(), "remote_tool", `{"x": 1}`)

	msg := decodeError(t, result)
	if !strings.Contains(msg, "srv") {
		t.Errorf("error = %q, want server name in connect failure", msg)
	}
}

func TestExecuteToolEmptyArguments(t *testing.T) {
	cfg := testConfig(config.ServerConfig{Name: "srv", Command: "/nonexistent/server"})
	e := NewExecutor(cfg, nil)
	e.CallTimeout = 5 * time.Second
	e.routes["no_args_tool"] = "srv"

	// Empty payload decodes to an empty argument map and execution
	// proceeds to the connection attempt.
	result := e.ExecuteTool(context.Background(), "no_args_tool", "")

	msg := decodeError(t, result)
	if strings.Contains(msg, "invalid arguments") {
		t.Errorf("empty payload should not be an argument error, got %q", msg)
	}
}

// --- Error Rendering Tests ---

func TestErrorTextShape(t *testing.T) {
	text := errorText(`quote " and backslash \`)

	var m map[string]string
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("errorText output is not valid JSON: %v", err)
	}
	if m["error"] != `quote " and backslash \` {
		t.Errorf("round-tripped message = %q", m["error"])
	}
}
