package provider

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// DefaultOllamaURL is used when the provider config has no base url
const DefaultOllamaURL = "http://localhost:11434"

func newOllama(serverURL string, modelName string) (*ollama.LLM, error) {
	if serverURL == "" {
		serverURL = DefaultOllamaURL
	}

	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return llm, nil
}

// OllamaEmbedder creates embeddings with a local Ollama model.
type OllamaEmbedder struct {
	embedder embeddings.Embedder
}

// NewOllamaEmbedder creates an embedder for the given model
func NewOllamaEmbedder(serverURL string, modelName string) (*OllamaEmbedder, error) {
	llm, err := newOllama(serverURL, modelName)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
	}

	return &OllamaEmbedder{embedder: embedder}, nil
}

// Embed returns the embedding of the text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return vector, nil
}

// OllamaCompleter sends prompts to a local Ollama model.
type OllamaCompleter struct {
	llm llms.Model
}

// NewOllamaCompleter creates a completer for the given model
func NewOllamaCompleter(serverURL string, modelName string) (*OllamaCompleter, error) {
	llm, err := newOllama(serverURL, modelName)
	if err != nil {
		return nil, err
	}
	return &OllamaCompleter{llm: llm}, nil
}

// Complete sends the prompt with temperature 0
func (c *OllamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("ollama completion failed: %w", err)
	}
	return completion, nil
}
