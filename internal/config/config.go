package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultChunkOverlap = 50

// AppInfo holds basic information about the application.
type AppInfo struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

// LoggerConfig controls the log output.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseURL"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseURL"`
	MaxTokens   int     `yaml:"maxTokens"`
	Temperature float32 `yaml:"temperature"`
}

// VectorStoreConfig selects the vector store backing the index.
// Location is either "memory" for the in-process store or a Milvus
// address such as "localhost:19530".
type VectorStoreConfig struct {
	Location   string `yaml:"location"`
	Collection string `yaml:"collection"`
}

// DocumentsConfig bounds document ingestion.
type DocumentsConfig struct {
	MaxFileSizeMB int `yaml:"maxFileSizeMB"`
	ChunkSize     int `yaml:"chunkSize"`
	ChunkOverlap  int `yaml:"chunkOverlap"`
}

// RetrievalConfig bounds the query fan-out.
type RetrievalConfig struct {
	TopK           int     `yaml:"topK"`
	ScoreThreshold float32 `yaml:"scoreThreshold"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	Server      ServerConfig      `yaml:"server"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	Documents   DocumentsConfig   `yaml:"documents"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
}

// LoadConfig reads the YAML file at path, expands ${ENV} references,
// applies defaults and validates the result.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Secrets stay out of the file; ${GROQ_API_KEY}-style references
	// are resolved from the environment.
	expanded := os.ExpandEnv(string(data))

	var cfg AppConfig
	// Zero overlap is a valid explicit setting, so its default is
	// seeded before parsing; an absent key keeps it, an explicit 0
	// overrides it.
	cfg.Documents.ChunkOverlap = defaultChunkOverlap
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "athena"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.Temperature < 0 {
		c.LLM.Temperature = 0
	}
	if c.VectorStore.Location == "" {
		c.VectorStore.Location = "memory"
	}
	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = "documents"
	}
	if c.Documents.MaxFileSizeMB <= 0 {
		c.Documents.MaxFileSizeMB = 50
	}
	if c.Documents.ChunkSize <= 0 {
		c.Documents.ChunkSize = 500
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 5
	}
}

// Validate checks the configuration invariants that must hold before
// any component is constructed. Violations abort process startup.
func (c *AppConfig) Validate() error {
	if c.Documents.ChunkOverlap < 0 {
		return fmt.Errorf("documents.chunkOverlap must not be negative, got %d", c.Documents.ChunkOverlap)
	}
	if c.Documents.ChunkOverlap >= c.Documents.ChunkSize {
		return fmt.Errorf("documents.chunkOverlap (%d) must be smaller than documents.chunkSize (%d)",
			c.Documents.ChunkOverlap, c.Documents.ChunkSize)
	}
	if err := requireAPIKey("embedding", c.Embedding.Provider, c.Embedding.APIKey); err != nil {
		return err
	}
	if err := requireAPIKey("llm", c.LLM.Provider, c.LLM.APIKey); err != nil {
		return err
	}
	return nil
}

// requireAPIKey enforces credentials for the hosted providers. Ollama
// is local and needs none.
func requireAPIKey(section, provider, key string) error {
	switch provider {
	case "openai", "gemini":
		if key == "" {
			return fmt.Errorf("%s.apiKey is required for provider %q", section, provider)
		}
	case "ollama":
	default:
		return fmt.Errorf("unsupported %s provider: %s", section, provider)
	}
	return nil
}
