package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client using the OpenAI chat completions API.
// Works with OpenAI, Ollama, vLLM, LiteLLM, and any OpenAI-compatible endpoint.
type OpenAIClient struct {
	client *openai.Client
}

// OpenAIOption configures the underlying API client.
type OpenAIOption func(*openai.ClientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(cfg *openai.ClientConfig) { cfg.HTTPClient = c }
}

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// NewOllamaClient creates a client for a local Ollama instance.
func NewOllamaClient(host string, opts ...OpenAIOption) *OpenAIClient {
	if host == "" {
		host = "http://localhost:11434"
	}
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = strings.TrimRight(host, "/") + "/v1"
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// NewOpenAICompatibleClient creates a client for any OpenAI-compatible
// endpoint. The base URL should include the version prefix, e.g.
// "https://api.example.com/v1".
func NewOpenAICompatibleClient(baseURL, apiKey string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	return c.parseResponse(&resp), nil
}

func (c *OpenAIClient) buildRequest(req ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{Content: m.Content}
		switch m.Role {
		case RoleSystem:
			msg.Role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			msg.Role = openai.ChatMessageRoleAssistant
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
		case RoleTool:
			msg.Role = openai.ChatMessageRoleTool
			msg.ToolCallID = m.ToolCallID
		default:
			msg.Role = openai.ChatMessageRoleUser
		}
		messages = append(messages, msg)
	}

	oaiReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}

	if req.MaxTokens > 0 {
		// Reasoning models reject max_tokens in favor of max_completion_tokens.
		if isReasoningModel(req.Model) {
			oaiReq.MaxCompletionTokens = req.MaxTokens
		} else {
			oaiReq.MaxTokens = req.MaxTokens
		}
	}
	if req.Temperature != nil {
		oaiReq.Temperature = float32(*req.Temperature)
	}

	for _, t := range req.Tools {
		oaiReq.Tools = append(oaiReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	if len(oaiReq.Tools) > 0 {
		oaiReq.ToolChoice = "auto"
	}

	return oaiReq
}

func (c *OpenAIClient) parseResponse(resp *openai.ChatCompletionResponse) *ChatResponse {
	usage := TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if resp.Usage.PromptTokensDetails != nil {
		usage.CacheRead = resp.Usage.PromptTokensDetails.CachedTokens
	}

	if len(resp.Choices) == 0 {
		return &ChatResponse{StopReason: StopEndTurn, Usage: usage}
	}

	choice := resp.Choices[0]
	result := &ChatResponse{
		Content:    choice.Message.Content,
		StopReason: mapOpenAIFinishReason(choice.FinishReason),
		Usage:      usage,
	}

	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result
}

func isReasoningModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func mapOpenAIFinishReason(reason openai.FinishReason) StopReason {
	switch reason {
	case openai.FinishReasonStop:
		return StopEndTurn
	case openai.FinishReasonLength:
		return StopMaxTokens
	case openai.FinishReasonToolCalls:
		return StopToolUse
	default:
		return StopEndTurn
	}
}
