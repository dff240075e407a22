package llm

import (
	"fmt"

	"athena/internal/config"
	"athena/internal/interfaces"
)

// NewClient creates the completion client selected by the
// configuration.
func NewClient(cfg config.LLMConfig) (interfaces.LLM, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey)
	case "gemini":
		return NewGemini(cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
