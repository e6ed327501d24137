package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// LangChainProvider talks to any OpenAI-compatible server (vLLM, LocalAI,
// llama.cpp, LM Studio) through langchaingo.
type LangChainProvider struct {
	client llms.Model
	config Config
	logger *slog.Logger
}

// NewLangChainProvider creates a provider for an OpenAI-compatible endpoint
func NewLangChainProvider(config Config) (*LangChainProvider, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for openai-compatible provider")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required for openai-compatible provider")
	}

	token := config.APIKey
	if token == "" {
		// Local servers usually ignore the token but the client requires one
		token = "none"
	}

	baseURL := strings.TrimSuffix(config.BaseURL, "/")

	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return newLangChainProvider(client, config), nil
}

func newLangChainProvider(client llms.Model, config Config) *LangChainProvider {
	return &LangChainProvider{
		client: client,
		config: config,
		logger: slog.Default().With("component", "llm-openai-compatible"),
	}
}

// Name returns the provider name
func (p *LangChainProvider) Name() string {
	return "openai-compatible"
}

// IsAvailable issues a tiny completion
func (p *LangChainProvider) IsAvailable(ctx context.Context) bool {
	_, err := llms.GenerateFromSinglePrompt(ctx, p.client, "ping", llms.WithMaxTokens(1))
	if err != nil {
		p.logger.Warn("openai-compatible availability check failed", "err", err)
		return false
	}
	return true
}

// Ask sends the prompt as a system+human exchange
func (p *LangChainProvider) Ask(ctx context.Context, prompt string) (string, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	resp, err := p.client.GenerateContent(ctx, content,
		llms.WithTemperature(p.config.Temperature),
		llms.WithMaxTokens(p.config.maxTokens()),
	)
	if err != nil {
		return "", fmt.Errorf("openai-compatible API error: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoResponse
	}

	answer := strings.TrimSpace(resp.Choices[0].Content)
	if answer == "" {
		return "", ErrNoResponse
	}
	return answer, nil
}
