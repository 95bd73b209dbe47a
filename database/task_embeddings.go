package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
	loadSql "github.com/siherrmann/taskrag/sql"
)

// TaskEmbeddingsSourceRef is the source reference of search results coming from task_embeddings.
const TaskEmbeddingsSourceRef = "tasks"

// TaskEmbeddingsDBHandlerFunctions defines the interface for task embedding operations.
type TaskEmbeddingsDBHandlerFunctions interface {
	UpsertTaskEmbedding(ctx context.Context, embedding *model.TaskEmbedding) error
	SelectBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error)
	CountTaskEmbeddings(ctx context.Context) (int64, error)
}

// TaskEmbeddingsDBHandler handles the task_embeddings table
type TaskEmbeddingsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewTaskEmbeddingsDBHandler creates a new task embeddings handler.
// The tasks table has to exist because task_embeddings references it.
func NewTaskEmbeddingsDBHandler(db *helper.Database, embeddingDim int, force bool) (*TaskEmbeddingsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("%w: embedding dimension must be positive", model.ErrConfiguration))
	}

	handler := &TaskEmbeddingsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadTaskEmbeddingsSql(handler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load task embeddings sql", err)
	}

	err = handler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TaskEmbeddingsDBHandler")

	return handler, nil
}

// CreateTable creates the 'task_embeddings' table with a vector column of the handler's dimension.
func (h *TaskEmbeddingsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_task_embeddings($1);`, h.embeddingDim)
	if err != nil {
		log.Panicf("error initializing task_embeddings table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table task_embeddings")

	return nil
}

// UpsertTaskEmbedding inserts or replaces the embedding of one task.
func (h *TaskEmbeddingsDBHandler) UpsertTaskEmbedding(ctx context.Context, embedding *model.TaskEmbedding) error {
	if len(embedding.Embedding) != h.embeddingDim {
		return helper.NewError("validate embedding", fmt.Errorf("%w: expected %d dimensions, got %d", model.ErrValidation, h.embeddingDim, len(embedding.Embedding)))
	}

	return h.db.Transact(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			`SELECT upsert_task_embedding($1, $2, $3, $4, $5, $6)`,
			embedding.TaskID,
			embedding.Title,
			embedding.Description,
			embedding.Priority,
			embedding.Category,
			pgvector.NewVector(embedding.Embedding),
		)
		if err != nil {
			return helper.NewError("exec", err)
		}
		return nil
	})
}

// SelectBySimilarity returns at most limit tasks whose similarity to the query vector
// is at least threshold, most similar first.
func (h *TaskEmbeddingsDBHandler) SelectBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error) {
	rows, err := h.db.Instance.QueryxContext(
		ctx,
		`SELECT * FROM select_task_embeddings_by_similarity($1, $2, $3)`,
		pgvector.NewVector(embedding),
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	results := []*model.SearchResult{}
	for rows.Next() {
		var taskID int64
		var title, description, priority, category string
		var createdAt time.Time
		var similarity float64
		err := rows.Scan(&taskID, &title, &description, &priority, &category, &createdAt, &similarity)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, &model.SearchResult{
			ID:         taskID,
			SourceRef:  TaskEmbeddingsSourceRef,
			Text:       description,
			Similarity: similarity,
			Metadata: model.Metadata{
				"title":      title,
				"priority":   priority,
				"category":   category,
				"created_at": createdAt,
			},
		})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// CountTaskEmbeddings returns the number of stored task embeddings
func (h *TaskEmbeddingsDBHandler) CountTaskEmbeddings(ctx context.Context) (int64, error) {
	var count int64
	err := h.db.Instance.GetContext(ctx, &count, `SELECT count_task_embeddings()`)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// ChangeIndexType replaces the vector index of task_embeddings.
func (h *TaskEmbeddingsDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return changeIndexType(ctx, h.db, "task_embeddings", indexType, params)
}
