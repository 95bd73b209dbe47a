package taskrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/taskrag/core/orchestrator"
	"github.com/siherrmann/taskrag/core/pipeline"
	"github.com/siherrmann/taskrag/core/provider"
	"github.com/siherrmann/taskrag/core/retrieval"
	"github.com/siherrmann/taskrag/core/synthesis"
	"github.com/siherrmann/taskrag/database"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
	loadSql "github.com/siherrmann/taskrag/sql"
)

// Vector tables accepted by ChangeIndexType
const (
	TableTaskEmbeddings = "task_embeddings"
	TablePdfDocuments   = "pdf_documents"
)

// TaskRAG provides a unified interface to the task store, ingestion and question answering
type TaskRAG struct {
	DB             *helper.Database
	Tasks          *database.TasksDBHandler
	TaskEmbeddings *database.TaskEmbeddingsDBHandler
	Documents      retrieval.VectorStore // pdf_documents or an in-memory store
	Pipeline       *pipeline.Pipeline
	TaskEngine     *retrieval.Engine
	DocumentEngine *retrieval.Engine
	Synthesizer    *synthesis.Synthesizer
	Orchestrator   *orchestrator.Orchestrator
	config         *model.Config
	// Logging
	log *slog.Logger
}

type options struct {
	embed    pipeline.EmbedFunc
	complete pipeline.CompleteFunc
	logger   *slog.Logger
}

// Option configures a TaskRAG.
type Option func(*options)

// WithEmbedFunc replaces the embedding backend selected by the configuration
func WithEmbedFunc(embed pipeline.EmbedFunc) Option {
	return func(o *options) {
		o.embed = embed
	}
}

// WithCompleteFunc replaces the completion backend selected by the configuration
func WithCompleteFunc(complete pipeline.CompleteFunc) Option {
	return func(o *options) {
		o.complete = complete
	}
}

// WithLogger replaces the default pretty logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewTaskRAG connects to the database, creates all tables and wires the components.
// A nil config uses model.DefaultConfig. Backends that cannot be created from the
// configuration are logged; operations needing them fail with model.ErrConfiguration.
func NewTaskRAG(dbConfig *helper.DatabaseConfiguration, config *model.Config, opts ...Option) (*TaskRAG, error) {
	if config == nil {
		config = model.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	// Logger
	logger := o.logger
	if logger == nil {
		prettyOpts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, prettyOpts))
	}

	// Initialize database
	db, err := helper.NewDatabase("taskrag", dbConfig, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}
	err = loadSql.Init(db.Instance)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("initialize database extensions", err)
	}

	// tasks first, task_embeddings references it
	tasks, err := database.NewTasksDBHandler(db, false)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create tasks handler", err)
	}

	taskEmbeddings, err := database.NewTaskEmbeddingsDBHandler(db, config.Embedding.Dimension, false)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create task embeddings handler", err)
	}

	var documents retrieval.VectorStore
	switch config.VectorStore.Type {
	case model.VectorStoreMemory:
		documents, err = retrieval.NewMemoryStore(config.Embedding.Dimension)
	default:
		documents, err = database.NewPdfDocumentsDBHandler(db, config.Embedding.Dimension, false)
	}
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create document store", err)
	}

	embed, complete := newBackends(config, o, logger)

	var embedder pipeline.EmbedFunc
	if embed != nil {
		client, err := pipeline.NewEmbeddingClient(embed, config.Embedding.Dimension)
		if err != nil {
			_ = db.Close()
			return nil, helper.NewError("create embedding client", err)
		}
		embedder = client.EmbedFunc()
	}
	p := pipeline.NewPipeline(pipeline.WindowChunker(config.Chunking.ChunkSize, config.Chunking.Overlap), embedder)

	taskEngine, err := retrieval.NewEngine(taskEmbeddings, config.Embedding.Dimension, logger)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create task engine", err)
	}
	documentEngine, err := retrieval.NewEngine(documents, config.Embedding.Dimension, logger)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create document engine", err)
	}

	synthesizer := synthesis.NewSynthesizer(complete, synthesis.WithLogger(logger))
	orch := orchestrator.NewOrchestrator(
		p,
		documents,
		synthesizer,
		tasks,
		orchestrator.WithConcurrency(config.Ingestion.Concurrency),
		orchestrator.WithSummarizer(complete),
		orchestrator.WithLogger(logger),
	)

	return &TaskRAG{
		DB:             db,
		Tasks:          tasks,
		TaskEmbeddings: taskEmbeddings,
		Documents:      documents,
		Pipeline:       p,
		TaskEngine:     taskEngine,
		DocumentEngine: documentEngine,
		Synthesizer:    synthesizer,
		Orchestrator:   orch,
		config:         config,
		log:            logger,
	}, nil
}

func newBackends(config *model.Config, o *options, logger *slog.Logger) (pipeline.EmbedFunc, pipeline.CompleteFunc) {
	embed := o.embed
	if embed == nil {
		var err error
		embed, err = provider.NewEmbedFunc(config.Embedding)
		if err != nil {
			logger.Warn("Embedding backend unavailable", slog.String("provider", config.Embedding.Provider), slog.String("error", err.Error()))
		}
	}

	complete := o.complete
	if complete == nil {
		var err error
		complete, err = provider.NewCompleteFunc(config.Completion)
		if err != nil {
			logger.Warn("Completion backend unavailable, questions use the fallback query", slog.String("provider", config.Completion.Provider), slog.String("error", err.Error()))
		}
	}

	return embed, complete
}

// Config returns the configuration the instance was created with
func (t *TaskRAG) Config() model.Config {
	return *t.config
}

// Close closes the database connection
func (t *TaskRAG) Close() error {
	if t.DB != nil {
		return t.DB.Close()
	}
	return nil
}

// AddTask validates and inserts the task in its own transaction and returns its id
func (t *TaskRAG) AddTask(ctx context.Context, task *model.Task) (int64, error) {
	err := t.Tasks.InsertTask(ctx, task)
	if err != nil {
		return 0, helper.NewError("add task", err)
	}

	t.log.Info("Added task", slog.Int64("task_id", task.ID), slog.String("title", task.Title))
	return task.ID, nil
}

// ListTasks returns all tasks ordered by id
func (t *TaskRAG) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := t.Tasks.SelectAllTasks(ctx)
	if err != nil {
		return nil, helper.NewError("list tasks", err)
	}
	return tasks, nil
}

// DeleteTask deletes the task and its embedding
func (t *TaskRAG) DeleteTask(ctx context.Context, id int64) error {
	err := t.Tasks.DeleteTask(ctx, id)
	if err != nil {
		return helper.NewError("delete task", err)
	}
	return nil
}

// PopulateTaskEmbeddings embeds the description of every task into task_embeddings.
// Tasks that fail to embed are skipped and counted in the report.
func (t *TaskRAG) PopulateTaskEmbeddings(ctx context.Context) (*model.IngestReport, error) {
	tasks, err := t.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	report, err := t.Orchestrator.EmbedTasks(ctx, tasks, t.TaskEmbeddings)
	if err != nil {
		return report, helper.NewError("populate task embeddings", err)
	}
	return report, nil
}

// Ingest chunks, embeds and stores the text under sourceRef
func (t *TaskRAG) Ingest(ctx context.Context, sourceRef string, text string) (*model.IngestReport, error) {
	report, err := t.Orchestrator.Ingest(ctx, sourceRef, text)
	if err != nil {
		return report, helper.NewError("ingest", err)
	}
	return report, nil
}

// IngestPDF extracts the text of all pages and ingests it under the file name
func (t *TaskRAG) IngestPDF(ctx context.Context, path string) (*model.IngestReport, error) {
	text, err := pipeline.ExtractPDFText(path)
	if err != nil {
		return nil, helper.NewError("ingest pdf", err)
	}

	return t.Ingest(ctx, filepath.Base(path), text)
}

// DeleteDocument removes all stored chunks of one source
func (t *TaskRAG) DeleteDocument(ctx context.Context, sourceRef string) (int, error) {
	deleted, err := t.Documents.DeleteRecordsBySource(ctx, sourceRef)
	if err != nil {
		return 0, helper.NewError("delete document", err)
	}
	return deleted, nil
}

// AnswerQuestion answers a natural language question with a synthesized SQL query
func (t *TaskRAG) AnswerQuestion(ctx context.Context, question string) (model.FormattedResponse[model.TaskRecord], error) {
	return t.Orchestrator.AnswerQuestion(ctx, question)
}

// SearchTasks finds the tasks whose descriptions are most similar to the question.
// A nil config uses the search section of the configuration.
func (t *TaskRAG) SearchTasks(ctx context.Context, question string, config *model.QueryConfig) (model.FormattedResponse[model.SearchResult], error) {
	return t.Orchestrator.SearchSimilar(ctx, t.TaskEngine, question, t.queryConfig(config))
}

// SearchDocuments finds the ingested chunks most similar to the question
func (t *TaskRAG) SearchDocuments(ctx context.Context, question string, config *model.QueryConfig) (model.FormattedResponse[model.SearchResult], error) {
	return t.Orchestrator.SearchSimilar(ctx, t.DocumentEngine, question, t.queryConfig(config))
}

func (t *TaskRAG) queryConfig(config *model.QueryConfig) model.QueryConfig {
	if config == nil {
		return t.config.Search
	}
	return *config
}

// ChangeIndexType changes the vector index of a table between HNSW and IVFFlat
func (t *TaskRAG) ChangeIndexType(ctx context.Context, table string, indexType string, params map[string]interface{}) error {
	switch table {
	case TableTaskEmbeddings:
		return t.TaskEmbeddings.ChangeIndexType(ctx, indexType, params)
	case TablePdfDocuments:
		documents, ok := t.Documents.(*database.PdfDocumentsDBHandler)
		if !ok {
			return helper.NewError("change index type", fmt.Errorf("%w: documents are not stored in postgres", model.ErrValidation))
		}
		return documents.ChangeIndexType(ctx, indexType, params)
	default:
		return helper.NewError("change index type", fmt.Errorf("%w: unknown table %q", model.ErrValidation, table))
	}
}
