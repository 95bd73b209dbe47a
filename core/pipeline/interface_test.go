package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/taskrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockEmbedFunc(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("empty text")
	}
	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

func TestNewPipeline(t *testing.T) {
	t.Run("Create new pipeline", func(t *testing.T) {
		pipeline := NewPipeline(WindowChunker(10, 2), mockEmbedFunc)

		assert.NotNil(t, pipeline)
		assert.NotNil(t, pipeline.Chunker)
		assert.NotNil(t, pipeline.Embedder)
	})
}

func TestPipelineSplit(t *testing.T) {
	t.Run("Split uses the chunker", func(t *testing.T) {
		pipeline := NewPipeline(WindowChunker(10, 2), mockEmbedFunc)

		chunks, err := pipeline.Split("doc", "0123456789abcdef")

		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, "89abcdef", chunks[1].Text)
	})

	t.Run("Missing chunker is a configuration error", func(t *testing.T) {
		pipeline := NewPipeline(nil, mockEmbedFunc)

		_, err := pipeline.Split("doc", "text")

		assert.ErrorIs(t, err, model.ErrConfiguration)
	})
}

func TestPipelineEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("Embed attaches the vector", func(t *testing.T) {
		pipeline := NewPipeline(WindowChunker(10, 2), mockEmbedFunc)
		chunk := &model.Chunk{SourceRef: "doc", SequenceIndex: 2, Text: "hello", StartPos: 16, EndPos: 21}

		embedded, err := pipeline.Embed(ctx, chunk)

		require.NoError(t, err)
		assert.Equal(t, *chunk, embedded.Chunk)
		assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, embedded.Vector)
	})

	t.Run("Embedding failure returns no chunk", func(t *testing.T) {
		pipeline := NewPipeline(WindowChunker(10, 2), mockEmbedFunc)

		embedded, err := pipeline.Embed(ctx, &model.Chunk{Text: ""})

		assert.Error(t, err)
		assert.Nil(t, embedded)
	})

	t.Run("Missing embedder is a configuration error", func(t *testing.T) {
		pipeline := NewPipeline(WindowChunker(10, 2), nil)

		_, err := pipeline.Embed(ctx, &model.Chunk{Text: "x"})

		assert.ErrorIs(t, err, model.ErrConfiguration)
	})
}
