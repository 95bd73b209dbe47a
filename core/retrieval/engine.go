package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
)

// Engine validates nearest-neighbour queries and enforces the ranking of a Searcher's results.
type Engine struct {
	searcher  Searcher
	dimension int
	logger    *slog.Logger
}

// NewEngine creates a new retrieval engine for vectors of the given dimension
func NewEngine(searcher Searcher, dimension int, logger *slog.Logger) (*Engine, error) {
	if searcher == nil {
		return nil, fmt.Errorf("%w: searcher is nil", model.ErrConfiguration)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", model.ErrConfiguration, dimension)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		searcher:  searcher,
		dimension: dimension,
		logger:    logger,
	}, nil
}

// Dimension returns the vector length the engine accepts
func (e *Engine) Dimension() int {
	return e.dimension
}

// Nearest returns at most limit results with similarity >= threshold,
// most similar first and ties by ascending id.
// Invalid input fails with model.ErrValidation before the store is queried.
func (e *Engine) Nearest(ctx context.Context, vector []float32, limit int, threshold float64) ([]*model.SearchResult, error) {
	err := ValidateQuery(vector, e.dimension, limit, threshold)
	if err != nil {
		return nil, err
	}

	results, err := e.searcher.SelectBySimilarity(ctx, vector, limit, threshold)
	if err != nil {
		return nil, helper.NewError("select by similarity", err)
	}

	ranked := Rank(results, limit, threshold)
	e.logger.Debug("Nearest neighbours selected", slog.Int("limit", limit), slog.Float64("threshold", threshold), slog.Int("count", len(ranked)))

	return ranked, nil
}

// ValidateQuery checks a nearest-neighbour query.
func ValidateQuery(vector []float32, dimension int, limit int, threshold float64) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: expected query vector of %d dimensions, got %d", model.ErrValidation, dimension, len(vector))
	}
	if limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1, got %d", model.ErrValidation, limit)
	}
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: similarity threshold must be in [0, 1], got %v", model.ErrValidation, threshold)
	}
	return nil
}

// Rank drops results below threshold, sorts by similarity descending then id ascending
// and truncates to limit. It never returns nil.
func Rank(results []*model.SearchResult, limit int, threshold float64) []*model.SearchResult {
	ranked := make([]*model.SearchResult, 0, len(results))
	for _, result := range results {
		if result == nil || result.Similarity < threshold {
			continue
		}
		ranked = append(ranked, result)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
