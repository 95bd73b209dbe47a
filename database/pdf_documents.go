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

// PdfDocumentsDBHandlerFunctions defines the interface for document chunk storage.
type PdfDocumentsDBHandlerFunctions interface {
	UpsertRecord(ctx context.Context, record *model.StoredRecord) (int64, error)
	SelectBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error)
	SelectRecordsBySource(ctx context.Context, sourceRef string) ([]*model.StoredRecord, error)
	DeleteRecordsBySource(ctx context.Context, sourceRef string) (int, error)
}

// PdfDocumentsDBHandler stores embedded document chunks in pdf_documents.
// A record's source ref is the filename and its sequence index is the page_number column.
type PdfDocumentsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

type pdfDocumentRow struct {
	ID         int64           `db:"id"`
	Filename   string          `db:"filename"`
	PageNumber int             `db:"page_number"`
	Content    string          `db:"content"`
	Embedding  pgvector.Vector `db:"embedding"`
	Metadata   model.Metadata  `db:"metadata"`
	CreatedAt  time.Time       `db:"created_at"`
}

// NewPdfDocumentsDBHandler creates a new pdf documents handler.
func NewPdfDocumentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*PdfDocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("%w: embedding dimension must be positive", model.ErrConfiguration))
	}

	handler := &PdfDocumentsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadPdfDocumentsSql(handler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load pdf documents sql", err)
	}

	err = handler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PdfDocumentsDBHandler")

	return handler, nil
}

// CreateTable creates the 'pdf_documents' table.
func (h *PdfDocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_pdf_documents($1);`, h.embeddingDim)
	if err != nil {
		log.Panicf("error initializing pdf_documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table pdf_documents")

	return nil
}

// UpsertRecord inserts the record or replaces text and vector of the record with the same
// (source ref, sequence index). It sets and returns record.ID.
func (h *PdfDocumentsDBHandler) UpsertRecord(ctx context.Context, record *model.StoredRecord) (int64, error) {
	if len(record.Vector) != h.embeddingDim {
		return 0, helper.NewError("validate record", fmt.Errorf("%w: expected %d dimensions, got %d", model.ErrValidation, h.embeddingDim, len(record.Vector)))
	}
	if record.Metadata == nil {
		record.Metadata = model.Metadata{}
	}

	err := h.db.Transact(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			`SELECT upsert_pdf_document($1, $2, $3, $4, $5)`,
			record.SourceRef,
			record.SequenceIndex,
			record.Text,
			pgvector.NewVector(record.Vector),
			record.Metadata,
		).Scan(&record.ID)
		if err != nil {
			return helper.NewError("scan", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return record.ID, nil
}

// SelectBySimilarity returns at most limit chunks whose similarity to the query vector
// is at least threshold, most similar first and ties by ascending id.
func (h *PdfDocumentsDBHandler) SelectBySimilarity(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*model.SearchResult, error) {
	rows, err := h.db.Instance.QueryxContext(
		ctx,
		`SELECT * FROM select_pdf_documents_by_similarity($1, $2, $3)`,
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
		result := &model.SearchResult{}
		err := rows.Scan(
			&result.ID,
			&result.SourceRef,
			&result.SequenceIndex,
			&result.Text,
			&result.Metadata,
			&result.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// SelectRecordsBySource returns all chunks of one source ordered by sequence index
func (h *PdfDocumentsDBHandler) SelectRecordsBySource(ctx context.Context, sourceRef string) ([]*model.StoredRecord, error) {
	rows := []pdfDocumentRow{}
	err := h.db.Instance.SelectContext(ctx, &rows, `SELECT * FROM select_pdf_documents_by_filename($1)`, sourceRef)
	if err != nil {
		return nil, helper.NewError("select", err)
	}

	records := make([]*model.StoredRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, &model.StoredRecord{
			ID:            row.ID,
			SourceRef:     row.Filename,
			SequenceIndex: row.PageNumber,
			Text:          row.Content,
			Vector:        row.Embedding.Slice(),
			Metadata:      row.Metadata,
			CreatedAt:     row.CreatedAt,
		})
	}

	return records, nil
}

// DeleteRecordsBySource deletes all chunks of one source and returns how many were removed
func (h *PdfDocumentsDBHandler) DeleteRecordsBySource(ctx context.Context, sourceRef string) (int, error) {
	var deleted int
	err := h.db.Instance.GetContext(ctx, &deleted, `SELECT delete_pdf_documents_by_filename($1)`, sourceRef)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

// ChangeIndexType replaces the vector index of pdf_documents.
func (h *PdfDocumentsDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return changeIndexType(ctx, h.db, "pdf_documents", indexType, params)
}
