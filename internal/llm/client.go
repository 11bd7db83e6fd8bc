// Package llm builds chat and embedding clients for the supported providers using CloudWeGo Eino.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	geminiEmbed "github.com/cloudwego/eino-ext/components/embedding/gemini"
	ollamaEmbed "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/josephgoksu/DocWing/internal/llm/providers/tei"
)

// Provider identifies the LLM provider to use.
type Provider string

// ErrUnsupportedProvider is returned for provider names outside the supported set.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider       Provider
	Model          string // Chat model
	EmbeddingModel string // Embedding model (optional)
	APIKey         string
	BaseURL        string // Ollama or TEI server URL
	MaxTokens      int    // Anthropic only
}

// NewChatModel creates a ChatModel for the configured provider.
// The returned model serves both Generate() and Stream() calls.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModelForProvider(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:  modelName,
			APIKey: cfg.APIKey,
		})

	case ProviderOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: orDefault(cfg.BaseURL, DefaultOllamaURL),
			Model:   modelName,
		})

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		maxTokens := cfg.MaxTokens
		if maxTokens <= 0 {
			maxTokens = DefaultMaxTokens
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     modelName,
			MaxTokens: maxTokens,
		})

	case ProviderGemini:
		client, err := newGenaiClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})

	default:
		return nil, fmt.Errorf("%w: %q (supported: openai, ollama, anthropic, gemini)", ErrUnsupportedProvider, cfg.Provider)
	}
}

// NewEmbeddingModel creates an Embedder for the configured provider.
func NewEmbeddingModel(ctx context.Context, cfg Config) (embedding.Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			Model:  orDefault(cfg.EmbeddingModel, DefaultOpenAIEmbeddingModel),
			APIKey: cfg.APIKey,
		})

	case ProviderOllama:
		return ollamaEmbed.NewEmbedder(ctx, &ollamaEmbed.EmbeddingConfig{
			BaseURL: orDefault(cfg.BaseURL, DefaultOllamaURL),
			Model:   orDefault(cfg.EmbeddingModel, DefaultOllamaEmbeddingModel),
		})

	case ProviderGemini:
		client, err := newGenaiClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return geminiEmbed.NewEmbedder(ctx, &geminiEmbed.EmbeddingConfig{
			Client: client,
			Model:  orDefault(cfg.EmbeddingModel, DefaultGeminiEmbeddingModel),
		})

	case ProviderTEI:
		return tei.NewEmbedder(ctx, &tei.Config{
			BaseURL: orDefault(cfg.BaseURL, DefaultTEIURL),
			Model:   cfg.EmbeddingModel,
			APIKey:  cfg.APIKey,
		})

	default:
		return nil, fmt.Errorf("%w for embeddings: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// ValidateProvider checks if the given chat provider name is supported.
// Matching is case-insensitive.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(p))) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderOllama:
		return ProviderOllama, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
	}
}

// ValidateEmbeddingProvider checks if the given embedding provider name is supported.
func ValidateEmbeddingProvider(p string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(p))) {
	case ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderTEI:
		return Provider(strings.ToLower(strings.TrimSpace(p))), nil
	default:
		return "", fmt.Errorf("%w for embeddings: %s", ErrUnsupportedProvider, p)
	}
}

func newGenaiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
