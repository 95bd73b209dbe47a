package model

import "fmt"

// QueryConfig represents configuration for a similarity query
type QueryConfig struct {
	TopK                int     `json:"top_k" yaml:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
	// Summarize sends the matches to the completion model for a prose answer.
	Summarize bool `json:"summarize" yaml:"summarize"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0.7,
		Summarize:           false,
	}
}

// Validate checks limit and threshold bounds.
func (c QueryConfig) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", ErrValidation, c.TopK)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in [0,1], got %v", ErrValidation, c.SimilarityThreshold)
	}
	return nil
}

// ChunkingConfig configures the window chunker.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// Validate fails when the window would not advance.
func (c ChunkingConfig) Validate() error {
	if c.ChunkSize <= c.Overlap {
		return fmt.Errorf("%w: chunk_size (%d) must be greater than overlap (%d)", ErrConfiguration, c.ChunkSize, c.Overlap)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative", ErrConfiguration)
	}
	return nil
}

// ProviderConfig selects and configures an embedding or completion backend.
type ProviderConfig struct {
	Provider  string `yaml:"provider"` // openai, ollama or hugot (embedding only)
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
}

// IngestionConfig configures ingestion.
type IngestionConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Vector store types
const (
	VectorStorePostgres = "postgres"
	VectorStoreMemory   = "memory"
)

// VectorStoreConfig selects where document chunks are stored.
type VectorStoreConfig struct {
	Type string `yaml:"type"` // postgres or memory
}

// Config is the root configuration.
type Config struct {
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Embedding   ProviderConfig    `yaml:"embedding"`
	Completion  ProviderConfig    `yaml:"completion"`
	Search      QueryConfig       `yaml:"search"`
	Ingestion   IngestionConfig   `yaml:"ingestion"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{ChunkSize: 500, Overlap: 50},
		Embedding: ProviderConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
		},
		Completion: ProviderConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Search:      DefaultQueryConfig(),
		Ingestion:   IngestionConfig{Concurrency: 1},
		VectorStore: VectorStoreConfig{Type: VectorStorePostgres},
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return err
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", ErrConfiguration)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if c.Ingestion.Concurrency < 1 {
		return fmt.Errorf("%w: ingestion concurrency must be >= 1", ErrConfiguration)
	}
	switch c.VectorStore.Type {
	case VectorStorePostgres, VectorStoreMemory:
	default:
		return fmt.Errorf("%w: unsupported vector store type %q", ErrConfiguration, c.VectorStore.Type)
	}
	return nil
}
