package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
)

// DefaultHugotModel produces 384-dimensional embeddings
const DefaultHugotModel = "sentence-transformers/all-MiniLM-L6-v2"

// EmbeddingClient wraps an embedding backend and enforces the configured dimensionality.
// Every failure it returns wraps model.ErrEmbedding.
type EmbeddingClient struct {
	embed     EmbedFunc
	dimension int
}

// NewEmbeddingClient creates a client for the given backend
func NewEmbeddingClient(embed EmbedFunc, dimension int) (*EmbeddingClient, error) {
	if embed == nil {
		return nil, fmt.Errorf("%w: embedding backend is nil", model.ErrConfiguration)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive, got %d", model.ErrConfiguration, dimension)
	}

	return &EmbeddingClient{
		embed:     embed,
		dimension: dimension,
	}, nil
}

// Dimension returns the expected vector length
func (c *EmbeddingClient) Dimension() int {
	return c.dimension
}

// Embed makes one call to the backend. A vector of the wrong length is rejected, never truncated or padded.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrEmbedding, err)
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", model.ErrEmbedding, c.dimension, len(vector))
	}
	return vector, nil
}

// EmbedFunc exposes the validated client as an EmbedFunc for a Pipeline
func (c *EmbeddingClient) EmbedFunc() EmbedFunc {
	return c.Embed
}

// HugotEmbedder creates an embedder using a local sentence transformer model.
// The model is downloaded on first use.
func HugotEmbedder(modelName string) (EmbedFunc, error) {
	if modelName == "" {
		modelName = DefaultHugotModel
	}

	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	// the pipeline is shared between ingestion workers
	var mu sync.Mutex

	return func(ctx context.Context, text string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mu.Lock()
		result, err := sentencePipeline.RunPipeline([]string{text})
		mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return result.Embeddings[0], nil
	}, nil
}
