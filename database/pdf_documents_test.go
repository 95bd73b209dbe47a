package database

import (
	"context"
	"testing"

	"github.com/siherrmann/taskrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initPdfDocuments(t *testing.T) *PdfDocumentsDBHandler {
	tasksDbHandler := initTasks(t)
	handler, err := NewPdfDocumentsDBHandler(tasksDbHandler.db, testDim, false)
	require.NoError(t, err)
	return handler
}

func TestPdfDocumentsNewHandler(t *testing.T) {
	t.Run("Invalid call with nil database", func(t *testing.T) {
		_, err := NewPdfDocumentsDBHandler(nil, testDim, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})

	t.Run("Invalid call with negative dimension", func(t *testing.T) {
		database := initDB(t)
		_, err := NewPdfDocumentsDBHandler(database, -1, false)
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})
}

func TestPdfDocumentsUpsert(t *testing.T) {
	handler := initPdfDocuments(t)
	ctx := context.Background()

	t.Run("Upsert assigns an id", func(t *testing.T) {
		record := &model.StoredRecord{SourceRef: "manual.pdf", SequenceIndex: 0, Text: "first", Vector: []float32{1, 0, 0}}

		id, err := handler.UpsertRecord(ctx, record)

		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.Equal(t, id, record.ID)
	})

	t.Run("Upsert with the same key updates instead of duplicating", func(t *testing.T) {
		first := &model.StoredRecord{SourceRef: "guide.pdf", SequenceIndex: 1, Text: "old text", Vector: []float32{1, 0, 0}}
		firstID, err := handler.UpsertRecord(ctx, first)
		require.NoError(t, err)

		second := &model.StoredRecord{
			SourceRef:     "guide.pdf",
			SequenceIndex: 1,
			Text:          "new text",
			Vector:        []float32{0, 1, 0},
			Metadata:      model.Metadata{"start_pos": 450},
		}
		secondID, err := handler.UpsertRecord(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, firstID, secondID)

		records, err := handler.SelectRecordsBySource(ctx, "guide.pdf")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "new text", records[0].Text)
		assert.Equal(t, []float32{0, 1, 0}, records[0].Vector)
		start, ok := records[0].Metadata.Int("start_pos")
		assert.True(t, ok)
		assert.Equal(t, 450, start)
	})

	t.Run("Wrong dimension is rejected and nothing is written", func(t *testing.T) {
		_, err := handler.UpsertRecord(ctx, &model.StoredRecord{SourceRef: "bad.pdf", Vector: []float32{1}})
		assert.ErrorIs(t, err, model.ErrValidation)

		records, err := handler.SelectRecordsBySource(ctx, "bad.pdf")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Records are ordered by sequence index and can be deleted", func(t *testing.T) {
		for _, i := range []int{2, 0, 1} {
			_, err := handler.UpsertRecord(ctx, &model.StoredRecord{SourceRef: "book.pdf", SequenceIndex: i, Text: "page", Vector: []float32{0, 0, 1}})
			require.NoError(t, err)
		}

		records, err := handler.SelectRecordsBySource(ctx, "book.pdf")
		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, r := range records {
			assert.Equal(t, i, r.SequenceIndex)
		}

		deleted, err := handler.DeleteRecordsBySource(ctx, "book.pdf")
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
	})
}

func TestPdfDocumentsSelectBySimilarity(t *testing.T) {
	handler := initPdfDocuments(t)
	ctx := context.Background()

	t.Run("Empty store returns an empty sequence", func(t *testing.T) {
		results, err := handler.SelectBySimilarity(ctx, []float32{1, 0, 0}, 5, 0.7)

		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Len(t, results, 0)
	})

	for i, v := range [][]float32{{1, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		_, err := handler.UpsertRecord(ctx, &model.StoredRecord{SourceRef: "search.pdf", SequenceIndex: i, Text: "chunk", Vector: v})
		require.NoError(t, err)
	}

	t.Run("Ties break by ascending id", func(t *testing.T) {
		results, err := handler.SelectBySimilarity(ctx, []float32{1, 0, 0}, 5, 0.7)

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, 0, results[0].SequenceIndex)
		assert.Equal(t, 1, results[1].SequenceIndex)
		assert.Less(t, results[0].ID, results[1].ID)
		assert.Equal(t, 2, results[2].SequenceIndex)
		assert.Equal(t, "search.pdf", results[0].SourceRef)
	})

	t.Run("Threshold is inclusive", func(t *testing.T) {
		results, err := handler.SelectBySimilarity(ctx, []float32{1, 0, 0}, 5, 1)

		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("Limit caps the result count", func(t *testing.T) {
		results, err := handler.SelectBySimilarity(ctx, []float32{1, 0, 0}, 2, 0)

		require.NoError(t, err)
		assert.Len(t, results, 2)
	})
}
