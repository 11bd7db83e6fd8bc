package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/internal/vectorstore"
)

// FileName is the default config file name looked up by the CLI.
const FileName = ".docwing.yaml"

// ErrConfigExists is returned when init would overwrite a config file.
var ErrConfigExists = fmt.Errorf("config file already exists")

// fileLLM mirrors the llm section of .docwing.yaml.
type fileLLM struct {
	Provider  string            `yaml:"provider"`
	Model     string            `yaml:"model"`
	BaseURL   string            `yaml:"baseURL,omitempty"`
	APIKeys   map[string]string `yaml:"apiKeys,omitempty"`
	Embedding struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"embedding"`
}

type fileRetrieval struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	FallbackThreshold   float64 `yaml:"fallback_threshold"`
}

type fileGraph struct {
	MaxSeeds  int     `yaml:"max_seeds"`
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
	MaxNodes  int     `yaml:"max_nodes"`
}

type fileStore struct {
	Backend string `yaml:"backend"`
}

type fileServer struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// File is the on-disk layout written by `docwing config init`.
type File struct {
	Version   string        `yaml:"version"`
	LLM       fileLLM       `yaml:"llm"`
	Retrieval fileRetrieval `yaml:"retrieval"`
	Graph     fileGraph     `yaml:"graph"`
	Store     fileStore     `yaml:"store"`
	Server    fileServer    `yaml:"server"`
}

// DefaultFile returns a starter config for the given chat provider.
// apiKey is stored under llm.apiKeys only when non-empty.
func DefaultFile(provider llm.Provider, apiKey string) File {
	r := DefaultRetrievalConfig()
	g := DefaultGraphConfig()

	f := File{
		Version: "1",
		LLM: fileLLM{
			Provider: string(provider),
			Model:    llm.DefaultModelForProvider(provider),
		},
		Retrieval: fileRetrieval{
			TopK:                r.TopK,
			SimilarityThreshold: r.SimilarityThreshold,
			FallbackThreshold:   r.FallbackThreshold,
		},
		Graph: fileGraph{
			MaxSeeds:  g.MaxSeeds,
			TopK:      g.TopK,
			Threshold: g.Threshold,
			MaxNodes:  g.MaxNodes,
		},
		Store:  fileStore{Backend: vectorstore.BackendSQLite},
		Server: fileServer{Port: DefaultPort, AllowedOrigins: DefaultAllowedOrigins},
	}

	switch provider {
	case llm.ProviderOllama:
		f.LLM.BaseURL = llm.DefaultOllamaURL
		f.LLM.Embedding.Provider = string(llm.ProviderOllama)
		f.LLM.Embedding.Model = llm.DefaultOllamaEmbeddingModel
	case llm.ProviderGemini:
		f.LLM.Embedding.Provider = string(llm.ProviderGemini)
		f.LLM.Embedding.Model = llm.DefaultGeminiEmbeddingModel
	default:
		f.LLM.Embedding.Provider = string(llm.ProviderOpenAI)
		f.LLM.Embedding.Model = llm.DefaultOpenAIEmbeddingModel
	}

	if apiKey != "" {
		f.LLM.APIKeys = map[string]string{string(provider): apiKey}
	}
	return f
}

// WriteFile writes f as YAML to path. Existing files are kept unless force
// is set. The file is created 0600 since it may hold API keys.
func WriteFile(path string, f File, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	content := append([]byte("# DocWing Configuration\n"), data...)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
