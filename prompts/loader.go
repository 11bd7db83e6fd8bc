package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PromptKey is a type for identifying specific prompts.
type PromptKey string

const (
	// KeyAnswerSystem is the key for the answer system prompt.
	KeyAnswerSystem PromptKey = "AnswerSystem"
	// KeyNoContext is the key for the empty-retrieval disclosure instruction.
	KeyNoContext PromptKey = "NoContext"
	// KeyFallbackCaveat is the key for the weak-context caveat instruction.
	KeyFallbackCaveat PromptKey = "FallbackCaveat"
	// KeyInsufficientInformation is the key for the empty-completion answer.
	KeyInsufficientInformation PromptKey = "InsufficientInformation"
)

// promptConfig defines the default content and filename for a prompt.
type promptConfig struct {
	defaultContent string
	filename       string
}

// promptRegistry maps a PromptKey to its configuration.
var promptRegistry = map[PromptKey]promptConfig{
	KeyAnswerSystem: {
		defaultContent: AnswerSystemPrompt,
		filename:       "answer_system_prompt.txt",
	},
	KeyNoContext: {
		defaultContent: NoContextInstruction,
		filename:       "no_context_prompt.txt",
	},
	KeyFallbackCaveat: {
		defaultContent: FallbackCaveatInstruction,
		filename:       "fallback_caveat_prompt.txt",
	},
	KeyInsufficientInformation: {
		defaultContent: InsufficientInformationAnswer,
		filename:       "insufficient_information.txt",
	},
}

// Set is the resolved prompt text used by the answer engine.
type Set struct {
	System                  string
	NoContext               string
	FallbackCaveat          string
	InsufficientInformation string
}

// Defaults returns the built-in prompt set.
func Defaults() Set {
	return Set{
		System:                  AnswerSystemPrompt,
		NoContext:               NoContextInstruction,
		FallbackCaveat:          FallbackCaveatInstruction,
		InsufficientInformation: InsufficientInformationAnswer,
	}
}

// Load resolves every prompt against templatesDir once at startup.
func Load(templatesDir string) (Set, error) {
	var set Set
	targets := []struct {
		key PromptKey
		dst *string
	}{
		{KeyAnswerSystem, &set.System},
		{KeyNoContext, &set.NoContext},
		{KeyFallbackCaveat, &set.FallbackCaveat},
		{KeyInsufficientInformation, &set.InsufficientInformation},
	}
	for _, t := range targets {
		content, err := GetPrompt(t.key, templatesDir)
		if err != nil {
			return Set{}, err
		}
		*t.dst = content
	}
	return set, nil
}

// GetPrompt searches for a user-provided prompt file in the templates
// directory. If found, it returns the content of that file. Otherwise, it returns
// the hardcoded default prompt content.
func GetPrompt(key PromptKey, templatesDir string) (string, error) {
	config, ok := promptRegistry[key]
	if !ok {
		return "", fmt.Errorf("unrecognized prompt key: %s", key)
	}

	// If templatesDir is not configured or is empty, always use default.
	if strings.TrimSpace(templatesDir) == "" {
		return config.defaultContent, nil
	}

	customPromptPath := filepath.Join(templatesDir, config.filename)

	if _, err := os.Stat(customPromptPath); err == nil {
		content, readErr := os.ReadFile(customPromptPath)
		if readErr != nil {
			return "", fmt.Errorf("failed to read custom prompt file at %s: %w", customPromptPath, readErr)
		}
		if strings.TrimSpace(string(content)) == "" {
			return config.defaultContent, nil
		}
		slog.Info("using custom prompt", "key", key, "path", customPromptPath)
		return strings.TrimRight(string(content), "\n"), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("error checking for custom prompt file at %s: %w", customPromptPath, err)
	}

	return config.defaultContent, nil
}
