package retrieval

import (
	"context"

	"github.com/siherrmann/taskrag/model"
)

// Searcher runs nearest-neighbour queries. Implementations return at most limit results
// with similarity >= threshold, where similarity is 1 - cosine distance.
type Searcher interface {
	SelectBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error)
}

// Upserter persists embedded chunks keyed by (source ref, sequence index).
type Upserter interface {
	UpsertRecord(ctx context.Context, record *model.StoredRecord) (int64, error)
}

// VectorStore is a store for chunked documents.
type VectorStore interface {
	Searcher
	Upserter
	DeleteRecordsBySource(ctx context.Context, sourceRef string) (int, error)
}
