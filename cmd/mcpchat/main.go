// Package main is the entry point for the mcpchat CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var version = "0.1.0"

// Global flags.
var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcpchat",
		Short: "Chat with language models that can call MCP tools",
		Long: `mcpchat connects chat models to MCP tool servers.

It reads an mcp.json configuration, launches the configured servers over
stdio, translates their tools into the model's function-calling schema,
and routes the model's tool calls back to the right server during an
interactive chat session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")

	root.AddCommand(newChatCmd())
	root.AddCommand(newToolsCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
