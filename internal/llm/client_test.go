package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     Provider
		wantErr  bool
	}{
		{name: "valid openai", provider: "openai", want: ProviderOpenAI},
		{name: "valid ollama", provider: "ollama", want: ProviderOllama},
		{name: "valid anthropic", provider: "anthropic", want: ProviderAnthropic},
		{name: "valid gemini", provider: "gemini", want: ProviderGemini},
		{name: "case insensitive", provider: " OpenAI ", want: ProviderOpenAI},
		{name: "tei is embeddings only", provider: "tei", wantErr: true},
		{name: "invalid provider", provider: "invalid", wantErr: true},
		{name: "empty provider", provider: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateProvider(tt.provider)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateEmbeddingProvider(t *testing.T) {
	got, err := ValidateEmbeddingProvider("TEI")
	require.NoError(t, err)
	assert.Equal(t, ProviderTEI, got)

	_, err = ValidateEmbeddingProvider("anthropic")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestDefaultModelForProvider(t *testing.T) {
	tests := []struct {
		provider Provider
		want     string
	}{
		{ProviderOpenAI, "gpt-4o-mini"},
		{ProviderAnthropic, "claude-3-5-haiku-latest"},
		{ProviderGemini, "gemini-2.0-flash"},
		{ProviderOllama, "llama3.2"},
		{ProviderTEI, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultModelForProvider(tt.provider))
		})
	}
}

func TestInferProvider(t *testing.T) {
	tests := []struct {
		model  string
		want   Provider
		wantOK bool
	}{
		{"gpt-4o", ProviderOpenAI, true},
		{"gpt-5-preview", ProviderOpenAI, true},
		{"claude-opus-4", ProviderAnthropic, true},
		{"gemini-1.5-flash", ProviderGemini, true},
		{"qwen2.5", ProviderOllama, true},
		{"mystery-model", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, ok := InferProvider(tt.model)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewChatModel_MissingAPIKey(t *testing.T) {
	ctx := context.Background()
	for _, p := range []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		t.Run(string(p), func(t *testing.T) {
			_, err := NewChatModel(ctx, Config{Provider: p})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "API key is required")
		})
	}
}

func TestNewChatModel_UnsupportedProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), Config{Provider: "bogus"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNewEmbeddingModel(t *testing.T) {
	ctx := context.Background()

	_, err := NewEmbeddingModel(ctx, Config{Provider: ProviderOpenAI})
	assert.Error(t, err)

	_, err = NewEmbeddingModel(ctx, Config{Provider: ProviderAnthropic})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	embedder, err := NewEmbeddingModel(ctx, Config{Provider: ProviderTEI, BaseURL: "http://localhost:9999"})
	require.NoError(t, err)
	assert.NotNil(t, embedder)
}
