package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/josephgoksu/DocWing/internal/llm"
)

// LLMConfig holds the chat and embedding provider settings.
type LLMConfig struct {
	Provider  llm.Provider
	Model     string
	BaseURL   string
	MaxTokens int

	EmbeddingProvider llm.Provider
	EmbeddingModel    string
	EmbeddingBaseURL  string

	// APIKeys holds the resolved key per provider.
	APIKeys map[llm.Provider]string
}

// Chat returns the llm.Config for the default chat provider.
func (c LLMConfig) Chat() llm.Config {
	return llm.Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKeys[c.Provider],
		BaseURL:   c.BaseURL,
		MaxTokens: c.MaxTokens,
	}
}

// Embedding returns the llm.Config for the query embedder.
func (c LLMConfig) Embedding() llm.Config {
	return llm.Config{
		Provider:       c.EmbeddingProvider,
		EmbeddingModel: c.EmbeddingModel,
		APIKey:         c.APIKeys[c.EmbeddingProvider],
		BaseURL:        c.EmbeddingBaseURL,
	}
}

// LoadLLMConfig loads LLM configuration from Viper and environment variables.
// Precedence: explicit config > environment variables > defaults.
func LoadLLMConfig() (LLMConfig, error) {
	// 1. Provider, inferred from the model name when only the model is set.
	provider := viper.GetString("llm.provider")
	model := viper.GetString("llm.model")
	if provider == "" && model != "" {
		if inferred, ok := llm.InferProvider(model); ok {
			provider = string(inferred)
		}
	}
	if provider == "" {
		provider = string(llm.DefaultProvider)
	}
	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return LLMConfig{}, fmt.Errorf("invalid provider: %w", err)
	}

	// 2. Model
	if model == "" {
		model = llm.DefaultModelForProvider(llmProvider)
	}

	// 3. Base URL (Ollama or OpenAI-compatible gateway)
	baseURL := viper.GetString("llm.baseURL")
	if baseURL == "" && llmProvider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}

	// 4. Embeddings default to the chat provider when it can embed.
	embedProvider := viper.GetString("llm.embedding.provider")
	if embedProvider == "" {
		embedProvider = string(llmProvider)
		if llmProvider == llm.ProviderAnthropic {
			embedProvider = string(llm.ProviderOpenAI)
		}
	}
	embeddingProvider, err := llm.ValidateEmbeddingProvider(embedProvider)
	if err != nil {
		return LLMConfig{}, fmt.Errorf("invalid embedding provider: %w", err)
	}

	embeddingModel := viper.GetString("llm.embedding.model")
	if embeddingModel == "" {
		switch embeddingProvider {
		case llm.ProviderOpenAI:
			embeddingModel = llm.DefaultOpenAIEmbeddingModel
		case llm.ProviderOllama:
			embeddingModel = llm.DefaultOllamaEmbeddingModel
		case llm.ProviderGemini:
			embeddingModel = llm.DefaultGeminiEmbeddingModel
		}
	}

	embeddingBaseURL := viper.GetString("llm.embedding.baseURL")
	if embeddingBaseURL == "" {
		switch embeddingProvider {
		case llm.ProviderOllama:
			embeddingBaseURL = llm.DefaultOllamaURL
		case llm.ProviderTEI:
			embeddingBaseURL = llm.DefaultTEIURL
		}
	}

	// 5. API keys for every provider, so per-request overrides can be served.
	keys := make(map[llm.Provider]string)
	for _, p := range []llm.Provider{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderTEI} {
		if k := ResolveAPIKey(p); k != "" {
			keys[p] = k
		}
	}

	return LLMConfig{
		Provider:          llmProvider,
		Model:             model,
		BaseURL:           baseURL,
		MaxTokens:         getIntWithDefault("llm.maxTokens", llm.DefaultMaxTokens),
		EmbeddingProvider: embeddingProvider,
		EmbeddingModel:    embeddingModel,
		EmbeddingBaseURL:  embeddingBaseURL,
		APIKeys:           keys,
	}, nil
}

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys, then provider-specific env vars.
func ResolveAPIKey(provider llm.Provider) string {
	path := fmt.Sprintf("llm.apiKeys.%s", provider)
	if viper.IsSet(path) {
		if key := strings.TrimSpace(viper.GetString(path)); key != "" {
			return key
		}
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	case llm.ProviderTEI:
		return strings.TrimSpace(os.Getenv("TEI_API_KEY"))
	default:
		return ""
	}
}
