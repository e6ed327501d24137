package llm

import (
	"context"
	"errors"
)

var (
	// ErrNoResponse is returned when a provider answers with no content
	ErrNoResponse = errors.New("no response from provider")

	// ErrUnknownProvider is returned by NewProvider for unsupported names
	ErrUnknownProvider = errors.New("unknown LLM provider")
)

// Oracle is the semantic text oracle: ask a question, get text back.
// Callers must treat the answer as untrusted free text.
type Oracle interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Provider is an Oracle backed by a concrete LLM service
type Provider interface {
	Oracle

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// OracleFunc adapts a plain function to the Oracle interface
type OracleFunc func(ctx context.Context, prompt string) (string, error)

// Ask calls f
func (f OracleFunc) Ask(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "openai-compatible"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, local OpenAI-compatible servers)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling; scoring prompts want this low
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "",
		Model:       "",
		Timeout:     30,
		MaxTokens:   512,
		Temperature: 0.1,
	}
}

// systemPrompt frames every oracle call
const systemPrompt = "You are a careful fact-checking assistant. Answer exactly in the format requested, without extra commentary."

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 512
}
