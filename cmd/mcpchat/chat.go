package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcpcourse/mcpchat/internal/chat"
	"github.com/mcpcourse/mcpchat/internal/config"
	"github.com/mcpcourse/mcpchat/internal/llm"
	"github.com/mcpcourse/mcpchat/internal/telemetry"
	"github.com/mcpcourse/mcpchat/internal/tools"
)

func newChatCmd() *cobra.Command {
	var (
		system           string
		maxTokens        int
		temperature      float64
		tokenBudget      int
		toolTimeout      time.Duration
		discoveryTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chat <config-file> [model]",
		Short: "Start an interactive chat session with MCP tools",
		Long: `Starts a REPL connected to a chat model. Tools from the MCP servers in
the configuration file are offered to the model; when the model calls
one, mcpchat routes the call to the owning server and feeds the result
back. Type 'exit' or 'quit' to end the session.

The model defaults to ` + llm.DefaultModel + `. Prefix with a provider to
disambiguate, e.g. anthropic/claude-sonnet-4-20250514 or ollama/llama3.2.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// API keys may live in a local .env file; absence is fine.
			_ = godotenv.Load()

			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			model := llm.DefaultModel
			if len(args) == 2 {
				model = args[1]
			}

			client, modelName, err := llm.NewClientForModel(model)
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			ctx := telemetry.WithSessionID(cmd.Context(), "")
			logger := telemetry.SessionLogger(telemetry.NewLogger(os.Stderr, level), ctx, modelName)

			executor := tools.NewExecutor(cfg, logger)
			executor.CallTimeout = toolTimeout
			executor.DiscoveryTimeout = discoveryTimeout

			opts := chat.Options{
				Model:       modelName,
				System:      system,
				MaxTokens:   maxTokens,
				TokenBudget: tokenBudget,
				Logger:      logger,
			}
			if cmd.Flags().Changed("temperature") {
				opts.Temperature = &temperature
			}
			session := chat.NewSession(client, executor, opts)

			// Interrupt ends the session the same way 'exit' does. The
			// REPL blocks on stdin, so leave through the signal handler
			// rather than waiting for the read to return.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Println("\nGoodbye!")
				os.Exit(0)
			}()

			return session.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&system, "system", "", "System prompt for the session")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Completion token limit per call (0 = provider default)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature")
	cmd.Flags().IntVar(&tokenBudget, "token-budget", 0, "Total token budget for the session (0 = unlimited)")
	cmd.Flags().DurationVar(&toolTimeout, "tool-timeout", tools.DefaultCallTimeout, "Timeout for a single tool execution")
	cmd.Flags().DurationVar(&discoveryTimeout, "discovery-timeout", 0, "Per-server timeout during tool discovery (0 = default)")

	return cmd
}
