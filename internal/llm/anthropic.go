package llm

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a client that reads ANTHROPIC_API_KEY from the environment.
func NewAnthropicClient() *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(),
	}
}

// NewAnthropicClientWithKey creates a client with an explicit API key.
func NewAnthropicClientWithKey(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Chat sends a chat completion request.
func (c *AnthropicClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	msg, err := c.client.Messages.New(ctx, c.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}
	return c.parseResponse(msg), nil
}

func (c *AnthropicClient) buildParams(req ChatRequest) anthropic.MessageNewParams {
	system := req.System
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			// The Messages API has no system role; fold into the system prompt.
			if system == "" {
				system = m.Content
			} else {
				system += "\n\n" + m.Content
			}
		case RoleTool:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		case RoleAssistant:
			if len(m.ToolCalls) > 0 {
				blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolCalls)+1)
				if m.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(m.Content))
				}
				for _, tc := range m.ToolCalls {
					blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, rawArguments(tc.Arguments), tc.Name))
				}
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			} else {
				messages = append(messages, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(m.Content),
				))
			}
		default:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.Content),
			))
		}
	}

	// The Messages API requires max_tokens on every call.
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        t.Name,
					Description: param.NewOpt(t.Description),
					InputSchema: toolInputSchema(t.InputSchema),
				},
			})
		}
		params.Tools = tools
	}

	return params
}

// toolInputSchema splits a JSON Schema object into the SDK's input_schema
// shape. The type member is implied by the SDK; properties map onto the
// dedicated field; required and any vendor members ride along as extra
// fields so nothing is dropped.
func toolInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	out := anthropic.ToolInputSchemaParam{}
	extra := make(map[string]any)
	for k, v := range schema {
		switch k {
		case "type":
		case "properties":
			out.Properties = v
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		out.ExtraFields = extra
	}
	return out
}

func (c *AnthropicClient) parseResponse(msg *anthropic.Message) *ChatResponse {
	resp := &ChatResponse{
		StopReason: mapAnthropicStopReason(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			CacheRead:    int(msg.Usage.CacheReadInputTokens),
			CacheWrite:   int(msg.Usage.CacheCreationInputTokens),
		},
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	return resp
}

// rawArguments turns a serialized argument payload into a value the SDK
// marshals verbatim. An empty payload becomes an empty object.
func rawArguments(args string) json.RawMessage {
	if args == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(args)
}

func mapAnthropicStopReason(reason anthropic.StopReason) StopReason {
	switch reason {
	case anthropic.StopReasonEndTurn:
		return StopEndTurn
	case anthropic.StopReasonMaxTokens:
		return StopMaxTokens
	case anthropic.StopReasonToolUse:
		return StopToolUse
	case anthropic.StopReasonStopSequence:
		return StopStopSequence
	default:
		return StopReason(string(reason))
	}
}
