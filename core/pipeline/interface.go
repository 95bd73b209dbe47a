package pipeline

import (
	"context"
	"fmt"

	"github.com/siherrmann/taskrag/model"
)

// ChunkFunc splits the text of one source into ordered chunks
type ChunkFunc func(sourceRef string, text string) ([]*model.Chunk, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// CompleteFunc sends a prompt to a language model and returns the raw completion
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// Split chunks the text of one source.
func (p *Pipeline) Split(sourceRef string, text string) ([]*model.Chunk, error) {
	if p.Chunker == nil {
		return nil, fmt.Errorf("%w: pipeline has no chunker", model.ErrConfiguration)
	}
	return p.Chunker(sourceRef, text)
}

// Embed attaches the embedding of the chunk's text.
// The chunk is not modified, so a failed call leaves nothing half built.
func (p *Pipeline) Embed(ctx context.Context, chunk *model.Chunk) (*model.EmbeddedChunk, error) {
	if p.Embedder == nil {
		return nil, fmt.Errorf("%w: pipeline has no embedder", model.ErrConfiguration)
	}

	vector, err := p.Embedder(ctx, chunk.Text)
	if err != nil {
		return nil, err
	}

	return &model.EmbeddedChunk{
		Chunk:  *chunk,
		Vector: vector,
	}, nil
}
