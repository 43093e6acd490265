// Package tools bridges MCP tool inventories to the chat API. It flattens
// discovered tools into function-calling definitions, keeps the routing
// table from tool name to owning server, and executes calls over a fresh
// connection per invocation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcpcourse/mcpchat/internal/config"
	"github.com/mcpcourse/mcpchat/internal/llm"
	"github.com/mcpcourse/mcpchat/internal/mcp"
)

// DefaultCallTimeout bounds a single tool execution including the
// connection handshake.
const DefaultCallTimeout = 60 * time.Second

// Executor owns the tool routing table for a chat session.
//
// ExecuteTool never returns an error: every failure is rendered as a JSON
// error object in the result text, so the model always receives a
// well-formed tool result and the conversation keeps its shape.
type Executor struct {
	// CallTimeout bounds one tool execution. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	// DiscoveryTimeout is the per-server budget during InitializeTools.
	// Zero means mcp.DefaultDiscoveryTimeout.
	DiscoveryTimeout time.Duration

	cfg    *config.Config
	logger *slog.Logger

	mu     sync.RWMutex
	routes map[string]string // tool name → server name
	defs   []llm.ToolDefinition
}

// NewExecutor creates an executor for the configured servers.
func NewExecutor(cfg *config.Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		cfg:    cfg,
		logger: logger,
		routes: make(map[string]string),
	}
}

// InitializeTools discovers every configured server and rebuilds the flat
// tool list and routing table. Unreachable servers are skipped with a
// warning rather than failing the session; the error return is reserved
// for context cancellation.
func (e *Executor) InitializeTools(ctx context.Context) ([]llm.ToolDefinition, error) {
	records := mcp.Discover(ctx, e.cfg.Servers, mcp.Options{Timeout: e.DiscoveryTimeout})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.rebuild(records), nil
}

// rebuild replaces the tool list and routing table from discovery records.
// Records are processed in configuration order; on a name collision the
// later server wins and the definition is replaced in place.
func (e *Executor) rebuild(records []mcp.ServerTools) []llm.ToolDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.routes = make(map[string]string)
	e.defs = nil
	position := make(map[string]int)

	for _, record := range records {
		if record.Err != nil {
			e.logger.Warn("skipping unreachable mcp server",
				"server", record.Server, "error", record.Err.Error())
			continue
		}
		if len(record.Tools) == 0 {
			e.logger.Warn("mcp server exposes no tools", "server", record.Server)
			continue
		}
		for _, tool := range record.Tools {
			def := llm.ToolDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			}
			if prev, exists := e.routes[tool.Name]; exists {
				e.logger.Warn("tool name collision, later server wins",
					"tool", tool.Name, "previous_server", prev, "server", record.Server)
				e.defs[position[tool.Name]] = def
			} else {
				position[tool.Name] = len(e.defs)
				e.defs = append(e.defs, def)
			}
			e.routes[tool.Name] = record.Server
		}
	}

	return append([]llm.ToolDefinition(nil), e.defs...)
}

// ExecuteTool runs one tool call and returns the result text. The
// arguments parameter is the serialized payload from the model; it is
// decoded here so a malformed payload becomes an error result instead of
// aborting the turn.
func (e *Executor) ExecuteTool(ctx context.Context, name, arguments string) string {
	e.mu.RLock()
	serverName, routed := e.routes[name]
	e.mu.RUnlock()
	if !routed {
		return errorText(fmt.Sprintf("Tool %s not found", name))
	}

	server, ok := e.cfg.Server(serverName)
	if !ok {
		return errorText(fmt.Sprintf("Server %s not configured", serverName))
	}

	args := make(map[string]any)
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return errorText(fmt.Sprintf("invalid arguments for tool %s: %v", name, err))
		}
	}

	timeout := e.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := mcp.NewClient(server)
	if err := client.Connect(ctx); err != nil {
		return errorText(err.Error())
	}
	defer client.Close()

	text, toolErr, err := client.CallTool(ctx, name, args)
	if err != nil {
		return errorText(err.Error())
	}
	if toolErr {
		// The text is the server's own error message; pass it through.
		e.logger.Warn("tool reported an error", "tool", name, "server", serverName)
	}
	return text
}

// errorText renders a failure in the same JSON shape tools use for their
// own error output.
func errorText(msg string) string {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return string(raw)
}
