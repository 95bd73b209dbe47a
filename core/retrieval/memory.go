package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
)

const memoryCollectionName = "documents"

// MemoryStore is an in-process VectorStore backed by a chromem-go collection.
// Similarity is the cosine similarity chromem computes on normalized vectors.
type MemoryStore struct {
	collection *chromem.Collection
	dimension  int

	mu      sync.Mutex
	entries map[string]memoryEntry
	nextID  int64
}

type memoryEntry struct {
	id        int64
	sourceRef string
}

// NewMemoryStore creates an empty store for vectors of the given dimension
func NewMemoryStore(dimension int) (*MemoryStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", model.ErrConfiguration, dimension)
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(memoryCollectionName, nil, noEmbedding)
	if err != nil {
		return nil, helper.NewError("create collection", err)
	}

	return &MemoryStore{
		collection: collection,
		dimension:  dimension,
		entries:    map[string]memoryEntry{},
	}, nil
}

// Records are always stored with their vector, so chromem must never embed on its own.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("%w: memory store requires precomputed embeddings", model.ErrEmbedding)
}

func recordKey(sourceRef string, sequenceIndex int) string {
	return sourceRef + "#" + strconv.Itoa(sequenceIndex)
}

// UpsertRecord stores the record, replacing the one with the same (source ref, sequence index).
// Replaced records keep their id.
func (s *MemoryStore) UpsertRecord(ctx context.Context, record *model.StoredRecord) (int64, error) {
	if len(record.Vector) != s.dimension {
		return 0, helper.NewError("validate record", fmt.Errorf("%w: expected %d dimensions, got %d", model.ErrValidation, s.dimension, len(record.Vector)))
	}

	metadata, err := record.Metadata.Marshal()
	if err != nil {
		return 0, helper.NewError("marshal metadata", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(record.SourceRef, record.SequenceIndex)
	entry, exists := s.entries[key]
	id := entry.id
	if !exists {
		id = s.nextID + 1
	}

	// chromem normalizes in place, the caller keeps its vector
	vector := make([]float32, len(record.Vector))
	copy(vector, record.Vector)

	err = s.collection.AddDocument(ctx, chromem.Document{
		ID:        key,
		Content:   record.Text,
		Embedding: vector,
		Metadata: map[string]string{
			"id":             strconv.FormatInt(id, 10),
			"source_ref":     record.SourceRef,
			"sequence_index": strconv.Itoa(record.SequenceIndex),
			"metadata":       string(metadata),
		},
	})
	if err != nil {
		return 0, helper.NewError("add document", err)
	}

	if !exists {
		s.nextID = id
		s.entries[key] = memoryEntry{id: id, sourceRef: record.SourceRef}
	}
	record.ID = id

	return id, nil
}

// SelectBySimilarity returns at most limit records with similarity >= threshold.
// An empty store returns an empty result.
func (s *MemoryStore) SelectBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", model.ErrValidation, s.dimension, len(embedding))
	}

	// chromem rejects nResults above the collection size
	count := s.collection.Count()
	if count == 0 {
		return []*model.SearchResult{}, nil
	}

	query := make([]float32, len(embedding))
	copy(query, embedding)

	// Every document is scored so ties at the limit are decided by id and not by chromem's order.
	found, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       count,
	})
	if err != nil {
		return nil, helper.NewError("query", err)
	}

	results := make([]*model.SearchResult, 0, len(found))
	for _, f := range found {
		result, err := searchResultFromDocument(f)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return Rank(results, limit, threshold), nil
}

// DeleteRecordsBySource removes all records of one source and returns how many were removed
func (s *MemoryStore) DeleteRecordsBySource(ctx context.Context, sourceRef string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []string{}
	for key, entry := range s.entries {
		if entry.sourceRef == sourceRef {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	err := s.collection.Delete(ctx, nil, nil, keys...)
	if err != nil {
		return 0, helper.NewError("delete documents", err)
	}
	for _, key := range keys {
		delete(s.entries, key)
	}

	return len(keys), nil
}

// Count returns the number of stored records
func (s *MemoryStore) Count() int {
	return s.collection.Count()
}

func searchResultFromDocument(doc chromem.Result) (*model.SearchResult, error) {
	id, err := strconv.ParseInt(doc.Metadata["id"], 10, 64)
	if err != nil {
		return nil, helper.NewError("parse id", err)
	}
	sequenceIndex, err := strconv.Atoi(doc.Metadata["sequence_index"])
	if err != nil {
		return nil, helper.NewError("parse sequence index", err)
	}

	metadata := model.Metadata{}
	err = metadata.Unmarshal(doc.Metadata["metadata"])
	if err != nil {
		return nil, helper.NewError("unmarshal metadata", err)
	}

	return &model.SearchResult{
		ID:            id,
		SourceRef:     doc.Metadata["source_ref"],
		SequenceIndex: sequenceIndex,
		Text:          doc.Content,
		Similarity:    float64(doc.Similarity),
		Metadata:      metadata,
	}, nil
}
