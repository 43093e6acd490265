package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpcourse/mcpchat/internal/config"
	"github.com/mcpcourse/mcpchat/internal/mcp"
)

// toolReport is the JSON shape printed for a server that answered.
type toolReport struct {
	Server    string             `json:"server"`
	Tools     []mcp.ToolInfo     `json:"tools"`
	ToolCount int                `json:"tool_count"`
	Resources []mcp.ResourceInfo `json:"resources,omitempty"`
	Prompts   []mcp.PromptInfo   `json:"prompts,omitempty"`
}

// errorReport is the JSON shape printed for a server that did not.
type errorReport struct {
	Server string `json:"server"`
	Error  string `json:"error"`
}

func newToolsCmd() *cobra.Command {
	var (
		full    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "tools <config-file>",
		Short: "List the tools exposed by the configured MCP servers",
		Long: `Connects to every server in the configuration file, asks each one what
it exposes, and prints the results as JSON in configuration order.
Servers that fail to answer are reported in place rather than aborting
the listing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			records := mcp.Discover(cmd.Context(), cfg.Servers, mcp.Options{
				Timeout: timeout,
				Full:    full,
			})

			reports := make([]any, 0, len(records))
			for _, r := range records {
				if r.Err != nil {
					reports = append(reports, errorReport{Server: r.Server, Error: r.Err.Error()})
					continue
				}
				report := toolReport{
					Server:    r.Server,
					Tools:     r.Tools,
					ToolCount: len(r.Tools),
				}
				// A reachable server with no tools lists as [], not null.
				if report.Tools == nil {
					report.Tools = []mcp.ToolInfo{}
				}
				if full {
					report.Resources = r.Resources
					report.Prompts = r.Prompts
				}
				reports = append(reports, report)
			}

			data, err := json.MarshalIndent(reports, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Also list resources and prompts")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-server timeout (0 = default)")

	return cmd
}
