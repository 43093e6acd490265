// Package chat implements the interactive conversation loop over MCP tools.
//
// A turn has at most one tool round: the model either answers directly, or
// requests tool calls once, sees their results, and then answers. History
// is append-only; a turn without tools adds two messages, a turn with K
// tool calls adds K+3.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mcpcourse/mcpchat/internal/llm"
)

// ToolExecutor provides the tool surface for a session: discovery of the
// available tools and execution of individual calls. ExecuteTool is total;
// failures come back as error text in the result.
type ToolExecutor interface {
	InitializeTools(ctx context.Context) ([]llm.ToolDefinition, error)
	ExecuteTool(ctx context.Context, name, arguments string) string
}

// Options configures a chat session.
type Options struct {
	Model       string
	System      string
	MaxTokens   int
	Temperature *float64
	TokenBudget int

	Input     io.Reader // REPL input, default os.Stdin
	Output    io.Writer // conversation surface, default os.Stdout
	ErrOutput io.Writer // turn errors, default os.Stderr
	Logger    *slog.Logger
}

// Session holds one conversation: the model, the flattened tool list, and
// the growing message history.
type Session struct {
	model       string
	system      string
	maxTokens   int
	temperature *float64

	client   llm.Client
	executor ToolExecutor
	tracker  *llm.TokenTracker
	logger   *slog.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	tools   []llm.ToolDefinition
	history []llm.Message
}

// NewSession creates a session. Initialize must be called before the first
// message is sent.
func NewSession(client llm.Client, executor ToolExecutor, opts Options) *Session {
	if opts.Model == "" {
		opts.Model = llm.DefaultModel
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		model:       opts.Model,
		system:      opts.System,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		client:      client,
		executor:    executor,
		tracker:     llm.NewTokenTracker(opts.TokenBudget),
		logger:      opts.Logger,
		in:          opts.Input,
		out:         opts.Output,
		errOut:      opts.ErrOutput,
	}
}

// Initialize discovers the configured MCP tools and builds the session's
// tool list.
func (s *Session) Initialize(ctx context.Context) error {
	fmt.Fprintln(s.out, "Initializing MCP tools...")

	tools, err := s.executor.InitializeTools(ctx)
	if err != nil {
		return fmt.Errorf("initialize tools: %w", err)
	}
	s.tools = tools

	fmt.Fprintf(s.out, "Loaded %d tools from MCP servers\n\n", len(tools))
	s.logger.Info("chat session ready", "model", s.model, "tools", len(tools))
	return nil
}

// SendMessage runs one conversation turn and returns the assistant's reply.
//
// The user message is appended, the model is called with the tool list,
// any requested tool calls are executed sequentially in order, and a
// second call without tools produces the final reply. History grows as
// the turn proceeds; on error the appended prefix remains.
func (s *Session) SendMessage(ctx context.Context, userMessage string) (string, error) {
	if err := s.tracker.CheckBudget(); err != nil {
		return "", err
	}

	s.history = append(s.history, llm.Message{Role: llm.RoleUser, Content: userMessage})

	resp, err := s.complete(ctx, s.tools)
	if err != nil {
		return "", err
	}

	if len(resp.ToolCalls) > 0 {
		s.history = append(s.history, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			fmt.Fprintf(s.out, "Calling tool: %s with args: %s\n", tc.Name, tc.Arguments)

			start := time.Now()
			result := s.executor.ExecuteTool(ctx, tc.Name, tc.Arguments)
			s.logger.Debug("tool executed",
				"tool", tc.Name, "duration", time.Since(start))

			s.history = append(s.history, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}

		// Second call sees the tool results but is offered no tools;
		// a turn never has more than one tool round.
		resp, err = s.complete(ctx, nil)
		if err != nil {
			return "", err
		}
	}

	s.history = append(s.history, llm.Message{
		Role:    llm.RoleAssistant,
		Content: resp.Content,
	})

	return resp.Content, nil
}

func (s *Session) complete(ctx context.Context, tools []llm.ToolDefinition) (*llm.ChatResponse, error) {
	req := llm.ChatRequest{
		Model:       s.model,
		Messages:    s.history,
		System:      s.system,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}
	if len(tools) > 0 {
		req.Tools = tools
	}

	resp, err := s.client.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	s.tracker.Add(resp.Usage)
	s.logger.Debug("completion",
		"stop_reason", resp.StopReason,
		"tool_calls", len(resp.ToolCalls),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	return resp, nil
}

// Run drives the interactive loop until the user exits or input ends.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Chat session started. Type 'exit' or 'quit' to end the session.")
	fmt.Fprintln(s.out, strings.Repeat("=", 60))
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			fmt.Fprintln(s.out, "Goodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}

		reply, err := s.SendMessage(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(s.out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
			fmt.Fprintln(s.out)
			continue
		}

		fmt.Fprintf(s.out, "\nAssistant: %s\n\n", reply)
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() []llm.Message {
	return append([]llm.Message(nil), s.history...)
}

// Usage returns cumulative token usage for the session.
func (s *Session) Usage() llm.TokenUsage {
	return s.tracker.Usage()
}

func isExitCommand(input string) bool {
	return strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit")
}
