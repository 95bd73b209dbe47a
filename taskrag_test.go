package taskrag

import (
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/taskrag/core/pipeline"
	"github.com/siherrmann/taskrag/database"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 3

// testEmbedder counts the letters a, b and c, so texts of the same letters point the same way.
func testEmbedder(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, testDim)
	for _, r := range text {
		switch r {
		case 'a':
			vector[0]++
		case 'b':
			vector[1]++
		case 'c':
			vector[2]++
		}
	}
	return vector, nil
}

func testComplete(completion string) pipeline.CompleteFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return completion, nil
	}
}

func testConfig() *model.Config {
	config := model.DefaultConfig()
	config.Embedding.Dimension = testDim
	config.Chunking = model.ChunkingConfig{ChunkSize: 4, Overlap: 0}
	config.Ingestion.Concurrency = 2
	return config
}

func initTaskRAG(t *testing.T, config *model.Config, opts ...Option) *TaskRAG {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	opts = append([]Option{WithEmbedFunc(testEmbedder)}, opts...)
	r, err := NewTaskRAG(dbConfig, config, opts...)
	require.NoError(t, err, "failed to create taskrag")
	require.NotNil(t, r, "expected taskrag to be non-nil")

	_, err = r.DB.Instance.Exec(`TRUNCATE tasks, pdf_documents RESTART IDENTITY CASCADE;`)
	require.NoError(t, err)

	t.Cleanup(func() {
		r.Close()
	})

	return r
}

func addTasks(t *testing.T, r *TaskRAG) []*model.Task {
	tasks := []*model.Task{
		{Title: "Fix login", Description: "aaaa", Priority: "high", Category: "bug"},
		{Title: "Write docs", Description: "bbbb", Priority: "low", Category: "docs"},
		{Title: "Deploy", Description: "aaab", Priority: "high", Category: "ops"},
	}
	for _, task := range tasks {
		_, err := r.AddTask(context.Background(), task)
		require.NoError(t, err)
	}
	return tasks
}

func TestNewTaskRAG(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewTaskRAG", func(t *testing.T) {
		r, err := NewTaskRAG(dbConfig, testConfig(), WithEmbedFunc(testEmbedder))
		require.NoError(t, err, "Expected NewTaskRAG to not return an error")
		require.NotNil(t, r, "Expected NewTaskRAG to return a non-nil instance")
		assert.NotNil(t, r.DB, "Expected taskrag to have a database instance")
		assert.NotNil(t, r.Tasks, "Expected taskrag to have tasks handler")
		assert.NotNil(t, r.TaskEmbeddings, "Expected taskrag to have task embeddings handler")
		assert.IsType(t, &database.PdfDocumentsDBHandler{}, r.Documents, "Expected documents in postgres by default")
		assert.NotNil(t, r.Pipeline.Embedder, "Expected an embedder")
		assert.Equal(t, testDim, r.Config().Embedding.Dimension)

		err = r.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("Memory vector store", func(t *testing.T) {
		config := testConfig()
		config.VectorStore.Type = model.VectorStoreMemory

		r, err := NewTaskRAG(dbConfig, config, WithEmbedFunc(testEmbedder))
		require.NoError(t, err)
		defer r.Close()

		_, isPostgres := r.Documents.(*database.PdfDocumentsDBHandler)
		assert.False(t, isPostgres)
	})

	t.Run("Invalid config is rejected", func(t *testing.T) {
		config := testConfig()
		config.Chunking = model.ChunkingConfig{ChunkSize: 10, Overlap: 10}

		_, err := NewTaskRAG(dbConfig, config)
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})

	t.Run("Missing backends are not fatal", func(t *testing.T) {
		t.Setenv("TASKRAG_TEST_NO_KEY", "")
		config := testConfig()
		config.Embedding.APIKeyEnv = "TASKRAG_TEST_NO_KEY"
		config.Completion.APIKeyEnv = "TASKRAG_TEST_NO_KEY"

		r, err := NewTaskRAG(dbConfig, config)
		require.NoError(t, err)
		defer r.Close()

		assert.Nil(t, r.Pipeline.Embedder)
		_, err = r.Ingest(context.Background(), "doc.txt", "abc")
		assert.ErrorIs(t, err, model.ErrConfiguration)
	})

	t.Run("TaskRAG with nil database handles Close gracefully", func(t *testing.T) {
		r := &TaskRAG{}
		err := r.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

func TestTasks(t *testing.T) {
	r := initTaskRAG(t, testConfig())
	ctx := context.Background()

	t.Run("Add and list tasks", func(t *testing.T) {
		tasks := addTasks(t, r)

		listed, err := r.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		for i, task := range listed {
			assert.Equal(t, tasks[i].ID, task.ID, "Expected tasks ordered by id")
			assert.Equal(t, tasks[i].Title, task.Title)
		}
	})

	t.Run("Invalid task is rejected", func(t *testing.T) {
		_, err := r.AddTask(ctx, &model.Task{Title: "No priority"})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("Delete task", func(t *testing.T) {
		id, err := r.AddTask(ctx, &model.Task{Title: "Temporary", Priority: "low"})
		require.NoError(t, err)

		err = r.DeleteTask(ctx, id)
		require.NoError(t, err)

		err = r.DeleteTask(ctx, id)
		assert.Error(t, err, "Expected deleting twice to fail")
	})
}

func TestSearchTasks(t *testing.T) {
	r := initTaskRAG(t, testConfig())
	ctx := context.Background()
	addTasks(t, r)

	report, err := r.PopulateTaskEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Stored)
	assert.Equal(t, 0, report.Skipped)

	t.Run("Similar tasks are found", func(t *testing.T) {
		response, err := r.SearchTasks(ctx, "aaaa", nil)
		require.NoError(t, err)

		require.Equal(t, 2, response.Count)
		assert.Equal(t, "aaaa", response.Results[0].Text)
		assert.Equal(t, "Fix login", response.Results[0].Metadata["title"])
		assert.Equal(t, "aaab", response.Results[1].Text)
		assert.Contains(t, response.Response, "Found 2 similar tasks:")
	})

	t.Run("No match gives the no matches message", func(t *testing.T) {
		response, err := r.SearchTasks(ctx, "cccc", nil)
		require.NoError(t, err)

		assert.Equal(t, 0, response.Count)
		assert.Equal(t, model.MessageNoMatches, response.Message)
	})

	t.Run("Limit is respected", func(t *testing.T) {
		response, err := r.SearchTasks(ctx, "aaaa", &model.QueryConfig{TopK: 1, SimilarityThreshold: 0.7})
		require.NoError(t, err)
		assert.Equal(t, 1, response.Count)
	})

	t.Run("Populating again updates instead of duplicating", func(t *testing.T) {
		_, err := r.PopulateTaskEmbeddings(ctx)
		require.NoError(t, err)

		count, err := r.TaskEmbeddings.CountTaskEmbeddings(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

func TestDocuments(t *testing.T) {
	for _, storeType := range []string{model.VectorStorePostgres, model.VectorStoreMemory} {
		t.Run("Ingest and search with "+storeType+" store", func(t *testing.T) {
			config := testConfig()
			config.VectorStore.Type = storeType
			r := initTaskRAG(t, config)
			ctx := context.Background()

			report, err := r.Ingest(ctx, "notes.txt", "aaaabbbbcccc")
			require.NoError(t, err)
			assert.Equal(t, 3, report.Chunks)
			assert.Equal(t, 3, report.Stored)

			response, err := r.SearchDocuments(ctx, "bb", nil)
			require.NoError(t, err)
			require.Equal(t, 1, response.Count)
			assert.Equal(t, "bbbb", response.Results[0].Text)
			assert.Equal(t, "notes.txt", response.Results[0].SourceRef)
			assert.Equal(t, 1, response.Results[0].SequenceIndex)

			deleted, err := r.DeleteDocument(ctx, "notes.txt")
			require.NoError(t, err)
			assert.Equal(t, 3, deleted)

			deleted, err = r.DeleteDocument(ctx, "notes.txt")
			require.NoError(t, err)
			assert.Equal(t, 0, deleted, "Expected a second delete to remove nothing")

			response, err = r.SearchDocuments(ctx, "bb", nil)
			require.NoError(t, err)
			assert.Equal(t, model.MessageNoMatches, response.Response)
		})
	}

	t.Run("Missing pdf is an error", func(t *testing.T) {
		r := initTaskRAG(t, testConfig())
		_, err := r.IngestPDF(context.Background(), "does-not-exist.pdf")
		assert.Error(t, err)
	})
}

func TestAnswerQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("Synthesized query is answered from the task store", func(t *testing.T) {
		completion := "QUERY: SELECT id, title, description, priority, category FROM tasks WHERE priority = 'high' ORDER BY id\n" +
			"TEMPLATE: Found {count} high priority tasks.\n" +
			`VARIABLES: {"count": "len(results)"}`
		r := initTaskRAG(t, testConfig(), WithCompleteFunc(testComplete(completion)))
		addTasks(t, r)

		response, err := r.AnswerQuestion(ctx, "Which tasks are urgent?")
		require.NoError(t, err)

		assert.Equal(t, "Found 2 high priority tasks.", response.Response)
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "Fix login", response.Results[0].Title)
		assert.Equal(t, "Deploy", response.Results[1].Title)
	})

	t.Run("Writing statements fall back to the default query", func(t *testing.T) {
		r := initTaskRAG(t, testConfig(), WithCompleteFunc(testComplete("QUERY: DELETE FROM tasks")))
		addTasks(t, r)

		response, err := r.AnswerQuestion(ctx, "Remove everything")
		require.NoError(t, err)

		assert.Equal(t, model.FallbackSQL, response.Query)
		assert.Equal(t, "Found 3 tasks.", response.Response)

		tasks, err := r.ListTasks(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 3, "Expected the delete to be rolled back")
	})

	t.Run("Multiple statements fall back to the default query", func(t *testing.T) {
		r := initTaskRAG(t, testConfig(), WithCompleteFunc(testComplete("QUERY: COMMIT; DELETE FROM tasks")))
		addTasks(t, r)

		response, err := r.AnswerQuestion(ctx, "Remove everything for good")
		require.NoError(t, err)

		assert.Equal(t, model.FallbackSQL, response.Query)
		assert.Equal(t, 3, response.Count)

		tasks, err := r.ListTasks(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 3, "Expected the delete to never run")
	})

	t.Run("Invalid SQL falls back to the default query", func(t *testing.T) {
		r := initTaskRAG(t, testConfig(), WithCompleteFunc(testComplete("QUERY: SELEC nonsense")))
		addTasks(t, r)

		response, err := r.AnswerQuestion(ctx, "Broken")
		require.NoError(t, err)
		assert.Equal(t, 3, response.Count)
	})

	t.Run("Failing model falls back to the default query", func(t *testing.T) {
		failing := func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("model unavailable")
		}
		r := initTaskRAG(t, testConfig(), WithCompleteFunc(failing))
		addTasks(t, r)

		response, err := r.AnswerQuestion(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, "Found 3 tasks.", response.Response)
	})

	t.Run("Empty question is a validation error", func(t *testing.T) {
		r := initTaskRAG(t, testConfig(), WithCompleteFunc(testComplete("QUERY: SELECT 1")))
		_, err := r.AnswerQuestion(ctx, "")
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestChangeIndexType(t *testing.T) {
	r := initTaskRAG(t, testConfig())
	ctx := context.Background()

	t.Run("HNSW on task embeddings", func(t *testing.T) {
		err := r.ChangeIndexType(ctx, TableTaskEmbeddings, "hnsw", map[string]interface{}{"m": 16, "ef_construction": 64})
		assert.NoError(t, err)
	})

	t.Run("IVFFlat on pdf documents", func(t *testing.T) {
		err := r.ChangeIndexType(ctx, TablePdfDocuments, "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err)
	})

	t.Run("Unknown table is a validation error", func(t *testing.T) {
		err := r.ChangeIndexType(ctx, "tasks", "hnsw", nil)
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}
