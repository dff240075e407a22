package embedding

import (
	"fmt"

	"athena/internal/config"
	"athena/internal/interfaces"
)

// NewModel creates the embedding model selected by the configuration.
// The returned instance is fixed for the lifetime of the vector
// database so ingestion and queries share one embedding space.
func NewModel(cfg config.EmbeddingConfig) (interfaces.Embedding, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAIModel(cfg.Model, cfg.APIKey)
	case "gemini":
		return NewGeminiModel(cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
