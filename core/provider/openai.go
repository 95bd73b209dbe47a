package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/siherrmann/taskrag/model"
)

const (
	// MaxRetries is the number of retries after a rate limit response
	MaxRetries = 3
	// BaseBackoff doubles with every retry up to MaxBackoff
	BaseBackoff = 2 * time.Second
	MaxBackoff  = 32 * time.Second
)

// OpenAIClient holds the shared client and retry settings of the OpenAI backends.
type OpenAIClient struct {
	client      openai.Client
	baseBackoff time.Duration
}

// NewOpenAIClient creates a client. baseURL may be empty for the public API.
func NewOpenAIClient(apiKey string, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key not set", model.ErrConfiguration)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// rate limits are retried below with our own backoff
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		baseBackoff: BaseBackoff,
	}, nil
}

// OpenAIEmbedder creates embeddings with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	*OpenAIClient
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an embedder requesting vectors of the given dimension
func NewOpenAIEmbedder(client *OpenAIClient, embeddingModel string, dimension int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		OpenAIClient: client,
		model:        embeddingModel,
		dimension:    dimension,
	}
}

// Embed makes one embeddings call for the text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	var resp *openai.CreateEmbeddingResponse
	err := e.withRetry(ctx, func() error {
		var err error
		resp, err = e.client.Embeddings.New(ctx, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings generated")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}

	return vector, nil
}

// OpenAICompleter sends prompts to the chat completions API.
type OpenAICompleter struct {
	*OpenAIClient
	model string
}

// NewOpenAICompleter creates a completer for the given chat model
func NewOpenAICompleter(client *OpenAIClient, chatModel string) *OpenAICompleter {
	return &OpenAICompleter{
		OpenAIClient: client,
		model:        chatModel,
	}
}

// Complete sends the prompt as a single user message with temperature 0
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	}

	var completion *openai.ChatCompletion
	err := c.withRetry(ctx, func() error {
		var err error
		completion, err = c.client.Chat.Completions.New(ctx, params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return completion.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) withRetry(ctx context.Context, call func() error) error {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff << (attempt - 1)
			if backoff > MaxBackoff {
				backoff = MaxBackoff
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRateLimitError(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
