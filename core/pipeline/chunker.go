package pipeline

import (
	"fmt"

	"github.com/siherrmann/taskrag/model"
)

// Split cuts text into windows of chunkSize runes. Consecutive windows share overlap runes.
// The cursor advances by chunkSize-overlap and stops once it reaches the end of the text,
// so the last chunk may be shorter than chunkSize.
func Split(sourceRef string, text string, chunkSize int, overlap int) ([]*model.Chunk, error) {
	if err := (model.ChunkingConfig{ChunkSize: chunkSize, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	chunks := []*model.Chunk{}
	step := chunkSize - overlap

	for cursor, index := 0, 0; cursor < len(runes); cursor, index = cursor+step, index+1 {
		end := min(cursor+chunkSize, len(runes))
		chunks = append(chunks, &model.Chunk{
			SourceRef:     sourceRef,
			SequenceIndex: index,
			Text:          string(runes[cursor:end]),
			StartPos:      cursor,
			EndPos:        end,
		})
	}

	return chunks, nil
}

// WindowChunker creates a chunker with fixed window size and overlap
func WindowChunker(chunkSize int, overlap int) ChunkFunc {
	return func(sourceRef string, text string) ([]*model.Chunk, error) {
		chunks, err := Split(sourceRef, text, chunkSize, overlap)
		if err != nil {
			return nil, fmt.Errorf("window chunker: %w", err)
		}
		return chunks, nil
	}
}
