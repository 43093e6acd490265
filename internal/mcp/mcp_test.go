package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpcourse/mcpchat/internal/config"
)

// --- Client Tests (construction only, no subprocess) ---

func TestNewClient(t *testing.T) {
	cfg := config.ServerConfig{
		Name:    "test-server",
		Command: "echo",
		Args:    []string{"hello"},
	}

	client := NewClient(cfg)
	if client == nil {
		t.Fatal("expected non-nil Client")
	}
	if client.config.Name != "test-server" {
		t.Errorf("expected config.Name='test-server', got %q", client.config.Name)
	}
	if client.session != nil {
		t.Error("expected nil session before Connect()")
	}
}

func TestClientCloseWithoutConnect(t *testing.T) {
	client := NewClient(config.ServerConfig{Name: "test"})

	// Close without Connect should not error
	err := client.Close()
	if err != nil {
		t.Errorf("expected no error closing unconnected client, got: %v", err)
	}
}

func TestClientConnectEmptyCommand(t *testing.T) {
	client := NewClient(config.ServerConfig{Name: "no-cmd"})

	err := client.Connect(context.Background())
	if err == nil {
		t.Fatal("expected error for empty command, got nil")
	}
	if !strings.Contains(err.Error(), "no command configured") {
		t.Errorf("error = %q, want no-command context", err)
	}
}

func TestClientConnectInvalidCommand(t *testing.T) {
	client := NewClient(config.ServerConfig{
		Name:    "bad-cmd",
		Command: "/nonexistent/binary/path",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Connect(ctx)
	if err == nil {
		client.Close()
		t.Fatal("expected error for invalid command, got nil")
	}
	if !strings.Contains(err.Error(), "bad-cmd") {
		t.Errorf("error = %q, want server name in context", err)
	}
}

func TestClientListToolsNotConnected(t *testing.T) {
	client := NewClient(config.ServerConfig{Name: "test"})

	_, err := client.ListTools(context.Background())
	if err == nil {
		t.Fatal("expected error for ListTools without connection, got nil")
	}
	if err.Error() != "mcp client not connected" {
		t.Errorf("expected 'mcp client not connected', got %q", err.Error())
	}
}

func TestClientCallToolNotConnected(t *testing.T) {
	client := NewClient(config.ServerConfig{Name: "test"})

	_, _, err := client.CallTool(context.Background(), "some_tool", nil)
	if err == nil {
		t.Fatal("expected error for CallTool without connection, got nil")
	}
	if err.Error() != "mcp client not connected" {
		t.Errorf("expected 'mcp client not connected', got %q", err.Error())
	}
}

func TestClientListResourcesNotConnected(t *testing.T) {
	client := NewClient(config.ServerConfig{Name: "test"})

	if _, err := client.ListResources(context.Background()); err == nil {
		t.Fatal("expected error for ListResources without connection, got nil")
	}
	if _, err := client.ListPrompts(context.Background()); err == nil {
		t.Fatal("expected error for ListPrompts without connection, got nil")
	}
}

// --- Schema Conversion Tests ---

func TestSchemaToMapPreservesStructure(t *testing.T) {
	// Client sessions hand over the wire-format map, JSON Schema as the
	// server declared it.
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string", "description": "city name"},
			"unit":     map[string]any{"type": "string"},
		},
		"required":     []any{"location"},
		"x-vendor-ext": "survives",
	}

	m, err := schemaToMap(schema)
	if err != nil {
		t.Fatalf("schemaToMap() error = %v", err)
	}
	if m["type"] != "object" {
		t.Errorf("type = %v, want object", m["type"])
	}

	props, ok := m["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties = %T, want map", m["properties"])
	}
	location, ok := props["location"].(map[string]any)
	if !ok {
		t.Fatalf("properties.location = %T, want map", props["location"])
	}
	if location["type"] != "string" || location["description"] != "city name" {
		t.Errorf("location schema = %v, want type/description preserved", location)
	}

	required, ok := m["required"].([]any)
	if !ok || len(required) != 1 || required[0] != "location" {
		t.Errorf("required = %v, want [location]", m["required"])
	}
	if m["x-vendor-ext"] != "survives" {
		t.Errorf("vendor extension = %v, want pass-through", m["x-vendor-ext"])
	}
}

func TestSchemaToMapTypedSchema(t *testing.T) {
	// Server-side the SDK holds a typed schema; the trip through JSON
	// flattens it the same way.
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"location": {Type: "string", Description: "city name"},
		},
		Required: []string{"location"},
	}

	m, err := schemaToMap(schema)
	if err != nil {
		t.Fatalf("schemaToMap() error = %v", err)
	}
	if m["type"] != "object" {
		t.Errorf("type = %v, want object", m["type"])
	}
	props, ok := m["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties = %T, want map", m["properties"])
	}
	if _, ok := props["location"]; !ok {
		t.Errorf("properties = %v, want location entry", props)
	}
	required, ok := m["required"].([]any)
	if !ok || len(required) != 1 || required[0] != "location" {
		t.Errorf("required = %v, want [location]", m["required"])
	}
}

func TestSchemaToMapNil(t *testing.T) {
	m, err := schemaToMap(nil)
	if err != nil {
		t.Fatalf("schemaToMap(nil) error = %v", err)
	}
	if m["type"] != "object" {
		t.Errorf("nil schema should default to object, got %v", m)
	}
}

// --- Content Flattening Tests ---

func TestFlattenContentJoinsText(t *testing.T) {
	parts := []mcpsdk.Content{
		&mcpsdk.TextContent{Text: "line one"},
		&mcpsdk.TextContent{Text: "line two"},
	}

	got := flattenContent(parts)
	if got != "line one\nline two" {
		t.Errorf("flattenContent = %q, want newline-joined text", got)
	}
}

func TestFlattenContentEmpty(t *testing.T) {
	if got := flattenContent(nil); got != "" {
		t.Errorf("flattenContent(nil) = %q, want empty", got)
	}
}

func TestFlattenContentNonText(t *testing.T) {
	parts := []mcpsdk.Content{
		&mcpsdk.TextContent{Text: "caption"},
		&mcpsdk.ImageContent{MIMEType: "image/png", Data: []byte{0x89}},
	}

	got := flattenContent(parts)
	lines := strings.SplitN(got, "\n", 2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	if lines[0] != "caption" {
		t.Errorf("first line = %q, want caption", lines[0])
	}

	// Non-text parts are rendered as wire-format JSON.
	var decoded map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("second line is not JSON: %v (%q)", err, lines[1])
	}
	if decoded["mimeType"] != "image/png" {
		t.Errorf("decoded part = %v, want mimeType image/png", decoded)
	}
}

// --- Env Handling Tests ---

func TestEnvPairsSorted(t *testing.T) {
	pairs := envPairs(map[string]string{
		"ZEBRA": "z",
		"ALPHA": "a",
		"MID":   "m",
	})

	want := []string{"ALPHA=a", "MID=m", "ZEBRA=z"}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d", len(want), len(pairs))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %q, want %q", i, pairs[i], want[i])
		}
	}
}

// --- Discovery Tests ---

func TestDiscoverNoServers(t *testing.T) {
	records := Discover(context.Background(), nil, Options{})
	if len(records) != 0 {
		t.Errorf("expected 0 records for no servers, got %d", len(records))
	}
}

func TestDiscoverRecordsFailuresInOrder(t *testing.T) {
	servers := []config.ServerConfig{
		{Name: "first", Command: "/nonexistent/one"},
		{Name: "second", Command: "/nonexistent/two"},
		{Name: "third", Command: "/nonexistent/three"},
	}

	records := Discover(context.Background(), servers, Options{Timeout: 5 * time.Second})

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// One record per server, in configuration order, failures included.
	for i, name := range []string{"first", "second", "third"} {
		if records[i].Server != name {
			t.Errorf("records[%d].Server = %q, want %q", i, records[i].Server, name)
		}
		if records[i].Err == nil {
			t.Errorf("records[%d].Err = nil, want connection failure", i)
		}
		if len(records[i].Tools) != 0 {
			t.Errorf("records[%d] has %d tools, want none on failure", i, len(records[i].Tools))
		}
	}
}

func TestDiscoverEmptyCommandIsPerServerError(t *testing.T) {
	servers := []config.ServerConfig{
		{Name: "misconfigured"},
	}

	records := Discover(context.Background(), servers, Options{Timeout: time.Second})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Err == nil {
		t.Fatal("expected error record for empty command")
	}
	if !strings.Contains(records[0].Err.Error(), "no command configured") {
		t.Errorf("error = %q, want no-command context", records[0].Err)
	}
}

// --- ToolInfo Tests ---

func TestToolInfoJSONShape(t *testing.T) {
	ti := ToolInfo{
		ServerName:  "weather",
		Name:        "get_weather",
		Description: "Get current weather",
		InputSchema: map[string]any{"type": "object"},
	}

	raw, err := json.Marshal(ti)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m["name"] != "get_weather" {
		t.Errorf("name = %v, want get_weather", m["name"])
	}
	if _, present := m["input_schema"]; !present {
		t.Error("expected input_schema key in JSON output")
	}
	// The server name is carried in the record, not repeated per tool.
	if _, present := m["server_name"]; present {
		t.Error("server name should not appear in per-tool JSON")
	}
}
