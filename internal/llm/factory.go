package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/sieve/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "openai-compatible", "local", "langchain":
		return NewLangChainProvider(config)

	default:
		return nil, fmt.Errorf("%w: %q (supported: openai, anthropic, ollama, openai-compatible)", ErrUnknownProvider, config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig, search model.SearchConfig) Config {
	return Config{
		Provider:    modelConfig.Provider,
		Model:       modelConfig.Model,
		APIKey:      modelConfig.APIKey,
		BaseURL:     modelConfig.BaseURL,
		Timeout:     modelConfig.Timeout,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		HTTPProxy:   search.HTTPProxy,
		HTTPSProxy:  search.HTTPSProxy,
		NoProxy:     search.NoProxy,
	}
}
