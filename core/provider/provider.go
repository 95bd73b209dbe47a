package provider

import (
	"fmt"

	"github.com/siherrmann/taskrag/core/pipeline"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
)

// Provider names accepted in the configuration
const (
	OpenAI = "openai"
	Ollama = "ollama"
	Hugot  = "hugot"
)

// NewEmbedFunc creates the embedding backend selected by the configuration.
// The result is not dimension checked; wrap it in a pipeline.EmbeddingClient.
func NewEmbedFunc(config model.ProviderConfig) (pipeline.EmbedFunc, error) {
	switch config.Provider {
	case OpenAI:
		client, err := NewOpenAIClient(helper.APIKey(config), config.BaseURL)
		if err != nil {
			return nil, err
		}
		return NewOpenAIEmbedder(client, config.Model, config.Dimension).Embed, nil
	case Ollama:
		embedder, err := NewOllamaEmbedder(config.BaseURL, config.Model)
		if err != nil {
			return nil, err
		}
		return embedder.Embed, nil
	case Hugot:
		return pipeline.HugotEmbedder(config.Model)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", model.ErrConfiguration, config.Provider)
	}
}

// NewCompleteFunc creates the completion backend selected by the configuration.
func NewCompleteFunc(config model.ProviderConfig) (pipeline.CompleteFunc, error) {
	switch config.Provider {
	case OpenAI:
		client, err := NewOpenAIClient(helper.APIKey(config), config.BaseURL)
		if err != nil {
			return nil, err
		}
		return NewOpenAICompleter(client, config.Model).Complete, nil
	case Ollama:
		completer, err := NewOllamaCompleter(config.BaseURL, config.Model)
		if err != nil {
			return nil, err
		}
		return completer.Complete, nil
	default:
		return nil, fmt.Errorf("%w: unsupported completion provider %q", model.ErrConfiguration, config.Provider)
	}
}
