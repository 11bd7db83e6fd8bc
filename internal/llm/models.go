package llm

import "strings"

// Model describes a chat model the answer engine can route to.
type Model struct {
	ID          string
	Provider    Provider
	DisplayName string
	IsDefault   bool
}

// ModelRegistry lists known chat models. Unknown ids are still accepted
// when the provider is given explicitly.
var ModelRegistry = []Model{
	{ID: "gpt-4o-mini", Provider: ProviderOpenAI, DisplayName: "GPT-4o mini", IsDefault: true},
	{ID: "gpt-4o", Provider: ProviderOpenAI, DisplayName: "GPT-4o"},
	{ID: "gpt-4.1-mini", Provider: ProviderOpenAI, DisplayName: "GPT-4.1 mini"},
	{ID: "claude-3-5-haiku-latest", Provider: ProviderAnthropic, DisplayName: "Claude 3.5 Haiku", IsDefault: true},
	{ID: "claude-sonnet-4-0", Provider: ProviderAnthropic, DisplayName: "Claude Sonnet 4"},
	{ID: "gemini-2.0-flash", Provider: ProviderGemini, DisplayName: "Gemini 2.0 Flash", IsDefault: true},
	{ID: "gemini-2.5-pro", Provider: ProviderGemini, DisplayName: "Gemini 2.5 Pro"},
	{ID: "llama3.2", Provider: ProviderOllama, DisplayName: "Llama 3.2", IsDefault: true},
	{ID: "qwen2.5", Provider: ProviderOllama, DisplayName: "Qwen 2.5"},
}

// DefaultModelForProvider returns the default chat model id for a provider,
// or "" when the provider has none.
func DefaultModelForProvider(p Provider) string {
	for _, m := range ModelRegistry {
		if m.Provider == p && m.IsDefault {
			return m.ID
		}
	}
	return ""
}

// InferProvider guesses the provider from a model id.
func InferProvider(modelID string) (Provider, bool) {
	for _, m := range ModelRegistry {
		if m.ID == modelID {
			return m.Provider, true
		}
	}
	id := strings.ToLower(modelID)
	switch {
	case strings.HasPrefix(id, "gpt-"), strings.HasPrefix(id, "o1"), strings.HasPrefix(id, "o3"):
		return ProviderOpenAI, true
	case strings.HasPrefix(id, "claude"):
		return ProviderAnthropic, true
	case strings.HasPrefix(id, "gemini"):
		return ProviderGemini, true
	}
	return "", false
}
