// Package mcp wraps the MCP SDK client for tool discovery and invocation.
//
// Connections are short-lived: a Client is created, connected, used, and
// closed around each operation. Nothing here caches sessions between calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpcourse/mcpchat/internal/config"
)

// ToolInfo describes a tool available on an MCP server. InputSchema holds
// the server's JSON Schema as-declared; vendor extensions and unrecognized
// fields survive the trip.
type ToolInfo struct {
	ServerName  string         `json:"-"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ResourceInfo describes a resource or resource template on an MCP server.
type ResourceInfo struct {
	ServerName  string `json:"-"`
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mime_type,omitempty"`
}

// PromptInfo describes a prompt exposed by an MCP server.
type PromptInfo struct {
	ServerName  string           `json:"-"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one argument of a prompt.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Client is a single connection to one MCP server over stdio.
type Client struct {
	config  config.ServerConfig
	client  *mcpsdk.Client
	session *mcpsdk.ClientSession
}

// NewClient creates an MCP client for the given server config.
func NewClient(cfg config.ServerConfig) *Client {
	return &Client{config: cfg}
}

// Connect launches the server subprocess and performs the MCP handshake.
// Configured env entries are appended to the inherited environment.
func (c *Client) Connect(ctx context.Context) error {
	if c.config.Command == "" {
		return fmt.Errorf("server %s: no command configured", c.config.Name)
	}

	impl := &mcpsdk.Implementation{
		Name:    "mcpchat",
		Version: "0.1.0",
	}
	c.client = mcpsdk.NewClient(impl, nil)

	cmd := exec.CommandContext(ctx, c.config.Command, c.config.Args...)
	if len(c.config.Env) > 0 {
		cmd.Env = append(os.Environ(), envPairs(c.config.Env)...)
	}

	session, err := c.client.Connect(ctx, &mcpsdk.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return fmt.Errorf("mcp connect to %s: %w", c.config.Name, err)
	}
	c.session = session
	return nil
}

// ListTools returns all tools available on this server, schemas intact.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	if c.session == nil {
		return nil, fmt.Errorf("mcp client not connected")
	}

	var tools []ToolInfo
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp list tools: %w", err)
		}
		schema, err := schemaToMap(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("mcp tool %s schema: %w", tool.Name, err)
		}
		tools = append(tools, ToolInfo{
			ServerName:  c.config.Name,
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}

	return tools, nil
}

// ListResources returns the server's resources and resource templates.
// Templates report their URI template in the URI field.
func (c *Client) ListResources(ctx context.Context) ([]ResourceInfo, error) {
	if c.session == nil {
		return nil, fmt.Errorf("mcp client not connected")
	}

	var resources []ResourceInfo
	for res, err := range c.session.Resources(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp list resources: %w", err)
		}
		resources = append(resources, ResourceInfo{
			ServerName:  c.config.Name,
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		})
	}
	for tmpl, err := range c.session.ResourceTemplates(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp list resource templates: %w", err)
		}
		resources = append(resources, ResourceInfo{
			ServerName:  c.config.Name,
			URI:         tmpl.URITemplate,
			Name:        tmpl.Name,
			Description: tmpl.Description,
			MIMEType:    tmpl.MIMEType,
		})
	}

	return resources, nil
}

// ListPrompts returns the prompts exposed by this server.
func (c *Client) ListPrompts(ctx context.Context) ([]PromptInfo, error) {
	if c.session == nil {
		return nil, fmt.Errorf("mcp client not connected")
	}

	var prompts []PromptInfo
	for prompt, err := range c.session.Prompts(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp list prompts: %w", err)
		}
		info := PromptInfo{
			ServerName:  c.config.Name,
			Name:        prompt.Name,
			Description: prompt.Description,
		}
		for _, arg := range prompt.Arguments {
			info.Arguments = append(info.Arguments, PromptArgument{
				Name:        arg.Name,
				Description: arg.Description,
				Required:    arg.Required,
			})
		}
		prompts = append(prompts, info)
	}

	return prompts, nil
}

// CallTool invokes a tool and returns its flattened text output. The bool
// reports the server's is_error flag; in that case the text is the server's
// own error message. The error return covers transport and protocol
// failures only.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	if c.session == nil {
		return "", false, fmt.Errorf("mcp client not connected")
	}

	result, err := c.session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", false, fmt.Errorf("mcp call tool %s: %w", name, err)
	}

	return flattenContent(result.Content), result.IsError, nil
}

// Close gracefully closes the MCP connection.
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// schemaToMap normalizes whichever schema shape the SDK delivers (the wire
// map on the client side, a typed schema on the server side) into a plain
// map without interpreting it, so unrecognized fields pass through to the
// chat API verbatim.
func schemaToMap(schema any) (map[string]any, error) {
	if schema == nil {
		return map[string]any{"type": "object"}, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// flattenContent joins text parts with newlines. Non-text parts are
// rendered as their wire-format JSON so the model still sees something.
func flattenContent(parts []mcpsdk.Content) string {
	var sb strings.Builder
	for _, part := range parts {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if tc, ok := part.(*mcpsdk.TextContent); ok {
			sb.WriteString(tc.Text)
			continue
		}
		raw, err := json.Marshal(part)
		if err != nil {
			fmt.Fprintf(&sb, "[unrenderable %T content]", part)
			continue
		}
		sb.Write(raw)
	}
	return sb.String()
}

func envPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + env[k]
	}
	return pairs
}
