package llm

import (
	"fmt"
	"os"
	"strings"
)

// DefaultModel is used when no model is named on the command line.
const DefaultModel = "gpt-4o-mini"

// Provider identifies a chat completion provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
)

// ParseModelString parses a model string into provider and model name.
//
// Supported formats:
//
//	"ollama/llama3.2"          -> (ollama, "llama3.2")
//	"anthropic/claude-3-haiku" -> (anthropic, "claude-3-haiku")
//	"claude-sonnet-4-20250514" -> (anthropic, "claude-sonnet-4-20250514")
//	"gpt-4o-mini"              -> (openai, "gpt-4o-mini")
//	"llama3.2"                 -> (ollama, "llama3.2")  if OLLAMA_HOST set
func ParseModelString(model string) (Provider, string) {
	if i := strings.Index(model, "/"); i > 0 {
		prefix := strings.ToLower(model[:i])
		name := model[i+1:]
		switch prefix {
		case "ollama":
			return ProviderOllama, name
		case "openai":
			return ProviderOpenAI, name
		case "anthropic":
			return ProviderAnthropic, name
		}
	}

	// No prefix: infer from model name patterns
	lower := strings.ToLower(model)
	if strings.HasPrefix(lower, "claude") {
		return ProviderAnthropic, model
	}
	if strings.HasPrefix(lower, "gpt-") || strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3") || strings.HasPrefix(lower, "o4") {
		return ProviderOpenAI, model
	}

	// Check env vars as a last resort
	if os.Getenv("OLLAMA_HOST") != "" {
		return ProviderOllama, model
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" && os.Getenv("OPENAI_API_KEY") == "" {
		return ProviderAnthropic, model
	}

	return ProviderOpenAI, model
}

// NewClientForModel creates the appropriate client for the model string and
// returns it with the bare model name. A missing credential for the resolved
// provider is an error; detect it here, at startup, not on the first call.
//
// Environment variables used:
//
//	ANTHROPIC_API_KEY   Anthropic API key (read by SDK automatically)
//	OPENAI_API_KEY      OpenAI API key
//	OPENAI_BASE_URL     Custom OpenAI-compatible base URL
//	OLLAMA_HOST         Ollama server address (default: http://localhost:11434)
func NewClientForModel(model string) (Client, string, error) {
	provider, modelName := ParseModelString(model)

	switch provider {
	case ProviderOllama:
		return NewOllamaClient(os.Getenv("OLLAMA_HOST")), modelName, nil

	case ProviderAnthropic:
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set (required for model %q)", model)
		}
		return NewAnthropicClient(), modelName, nil

	default: // ProviderOpenAI
		apiKey := os.Getenv("OPENAI_API_KEY")
		if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
			return NewOpenAICompatibleClient(baseURL, apiKey), modelName, nil
		}
		if apiKey == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY not set (required for model %q)", model)
		}
		return NewOpenAIClient(apiKey), modelName, nil
	}
}
