package model

import "time"

// Chunk is one fixed-size window of a source document.
type Chunk struct {
	SourceRef     string `json:"source_ref"`
	SequenceIndex int    `json:"sequence_index"`
	Text          string `json:"text"`
	// Rune offsets of the window inside the source text
	StartPos int `json:"start_pos"`
	EndPos   int `json:"end_pos"`
}

// EmbeddedChunk is a chunk together with its embedding vector.
type EmbeddedChunk struct {
	Chunk
	Vector []float32 `json:"vector,omitempty"`
}

// StoredRecord is a persisted embedded chunk.
// It is keyed by (SourceRef, SequenceIndex); upserting the same key replaces text and vector.
type StoredRecord struct {
	ID            int64     `json:"id"`
	SourceRef     string    `json:"source_ref"`
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	Vector        []float32 `json:"vector,omitempty"`
	Metadata      Metadata  `json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewStoredRecord creates a record from an embedded chunk. The ID is assigned on insert.
func NewStoredRecord(chunk *EmbeddedChunk) *StoredRecord {
	return &StoredRecord{
		SourceRef:     chunk.SourceRef,
		SequenceIndex: chunk.SequenceIndex,
		Text:          chunk.Text,
		Vector:        chunk.Vector,
		Metadata: Metadata{
			"start_pos": chunk.StartPos,
			"end_pos":   chunk.EndPos,
		},
	}
}

// SearchResult represents a record retrieved by a nearest-neighbour query
type SearchResult struct {
	ID            int64    `json:"id"`
	SourceRef     string   `json:"source_ref"`
	SequenceIndex int      `json:"sequence_index"`
	Text          string   `json:"text"`
	Similarity    float64  `json:"similarity"`
	Metadata      Metadata `json:"metadata,omitempty"`
}
