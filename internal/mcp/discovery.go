package mcp

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcpcourse/mcpchat/internal/config"
)

// DefaultDiscoveryTimeout bounds the connect-and-list exchange per server.
const DefaultDiscoveryTimeout = 30 * time.Second

// ServerTools is the discovery record for one configured server. Err is set
// when the server could not be reached or queried; the other fields are
// then empty. A reachable server with no tools yields an empty Tools slice.
type ServerTools struct {
	Server    string         `json:"server"`
	Tools     []ToolInfo     `json:"tools"`
	Resources []ResourceInfo `json:"resources,omitempty"`
	Prompts   []PromptInfo   `json:"prompts,omitempty"`
	Err       error          `json:"-"`
}

// Options controls a discovery pass.
type Options struct {
	// Timeout is the per-server budget. Zero means DefaultDiscoveryTimeout.
	Timeout time.Duration
	// Full also lists resources and prompts, not just tools.
	Full bool
}

// Discover connects to every configured server, lists what it offers, and
// disconnects. Servers are queried concurrently; the returned records are
// in configuration order, one per server, failures included.
func Discover(ctx context.Context, servers []config.ServerConfig, opts Options) []ServerTools {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}

	records := make([]ServerTools, len(servers))
	var g errgroup.Group
	for i, server := range servers {
		g.Go(func() error {
			records[i] = discoverOne(ctx, server, timeout, opts.Full)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

func discoverOne(ctx context.Context, server config.ServerConfig, timeout time.Duration, full bool) ServerTools {
	record := ServerTools{Server: server.Name}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := NewClient(server)
	if err := client.Connect(ctx); err != nil {
		record.Err = err
		return record
	}
	defer client.Close()

	tools, err := client.ListTools(ctx)
	if err != nil {
		record.Err = err
		return record
	}
	record.Tools = tools

	if full {
		// Resources and prompts are optional capabilities; a server that
		// does not support them is not a failed server.
		if resources, err := client.ListResources(ctx); err == nil {
			record.Resources = resources
		}
		if prompts, err := client.ListPrompts(ctx); err == nil {
			record.Prompts = prompts
		}
	}

	return record
}
