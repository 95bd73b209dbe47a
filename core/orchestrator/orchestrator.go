package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/taskrag/core/pipeline"
	"github.com/siherrmann/taskrag/core/response"
	"github.com/siherrmann/taskrag/core/retrieval"
	"github.com/siherrmann/taskrag/core/synthesis"
	"github.com/siherrmann/taskrag/model"
)

// Executor runs a synthesized statement and returns positional rows.
type Executor interface {
	ExecuteReadOnly(ctx context.Context, query string) ([][]any, error)
}

// TaskEmbeddingStore persists the embedding of one task.
type TaskEmbeddingStore interface {
	UpsertTaskEmbedding(ctx context.Context, embedding *model.TaskEmbedding) error
}

// Orchestrator drives ingestion, synthesized queries and similarity searches.
type Orchestrator struct {
	pipeline    *pipeline.Pipeline
	store       retrieval.Upserter
	synthesizer *synthesis.Synthesizer
	executor    Executor
	formatter   *response.Formatter
	summarizer  pipeline.CompleteFunc
	concurrency int
	log         *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets how many chunks are embedded at the same time
func WithConcurrency(concurrency int) Option {
	return func(o *Orchestrator) {
		if concurrency > 0 {
			o.concurrency = concurrency
		}
	}
}

// WithSummarizer sets the completion backend used for QueryConfig.Summarize
func WithSummarizer(complete pipeline.CompleteFunc) Option {
	return func(o *Orchestrator) {
		o.summarizer = complete
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.log = logger
		}
	}
}

// NewOrchestrator creates an orchestrator. Any collaborator may be nil;
// operations that need a missing one degrade the way they do on its failure.
func NewOrchestrator(p *pipeline.Pipeline, store retrieval.Upserter, synthesizer *synthesis.Synthesizer, executor Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		pipeline:    p,
		store:       store,
		synthesizer: synthesizer,
		executor:    executor,
		concurrency: 1,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.formatter = response.NewFormatter(o.log)
	if o.synthesizer == nil {
		o.synthesizer = synthesis.NewSynthesizer(nil, synthesis.WithLogger(o.log))
	}
	if o.pipeline == nil {
		o.pipeline = pipeline.NewPipeline(nil, nil)
	}

	return o
}

// AnswerQuestion answers the question with a synthesized query.
// A failing query is replaced by the fallback query; if that fails too the response has no results.
// Only an empty question is an error.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, question string) (model.FormattedResponse[model.TaskRecord], error) {
	if strings.TrimSpace(question) == "" {
		return model.FormattedResponse[model.TaskRecord]{}, fmt.Errorf("%w: question is required", model.ErrValidation)
	}

	log := o.log.With(slog.String("question_id", uuid.NewString()))
	log.Debug("Answering question", slog.String("question", question))

	query, _ := o.synthesizer.Synthesize(ctx, question)

	rows, err := o.execute(ctx, query.SQL)
	if err != nil && !query.Fallback {
		log.Warn("Synthesized query failed", slog.String("sql", query.SQL), slog.String("error", err.Error()))
		query = o.synthesizer.Fallback(err)
		rows, err = o.execute(ctx, query.SQL)
	}
	if err != nil {
		log.Warn("Fallback query failed, answering without results", slog.String("sql", query.SQL), slog.String("error", err.Error()))
		rows = nil
	}

	return o.formatter.FormatResponse(query.ResponseTemplate, query.TemplateVariables, rows, query.SQL), nil
}

func (o *Orchestrator) execute(ctx context.Context, query string) ([][]any, error) {
	if o.executor == nil {
		return nil, fmt.Errorf("%w: no executor", model.ErrExecution)
	}
	return o.executor.ExecuteReadOnly(ctx, query)
}

// SearchSimilar answers the question with a nearest-neighbour search through the engine.
// Embedding or store failures give the "No matching tasks found." response.
// An empty question, an invalid config or a missing engine or embedder is an error.
func (o *Orchestrator) SearchSimilar(ctx context.Context, engine *retrieval.Engine, question string, config model.QueryConfig) (model.FormattedResponse[model.SearchResult], error) {
	if strings.TrimSpace(question) == "" {
		return model.FormattedResponse[model.SearchResult]{}, fmt.Errorf("%w: question is required", model.ErrValidation)
	}
	if err := config.Validate(); err != nil {
		return model.FormattedResponse[model.SearchResult]{}, err
	}
	if engine == nil {
		return model.FormattedResponse[model.SearchResult]{}, fmt.Errorf("%w: no retrieval engine", model.ErrConfiguration)
	}
	if o.pipeline.Embedder == nil {
		return model.FormattedResponse[model.SearchResult]{}, fmt.Errorf("%w: pipeline has no embedder", model.ErrConfiguration)
	}

	log := o.log.With(slog.String("question_id", uuid.NewString()))
	log.Debug("Searching similar records", slog.String("question", question), slog.Int("top_k", config.TopK))

	results, err := o.nearest(ctx, engine, question, config)
	if err != nil {
		log.Warn("Similarity search failed, answering without results", slog.String("error", err.Error()))
		results = nil
	}

	formatted := o.formatter.FormatSearchResponse(question, results)
	if config.Summarize {
		formatted = o.formatter.Summarize(ctx, o.summarizer, formatted)
	}

	return formatted, nil
}

func (o *Orchestrator) nearest(ctx context.Context, engine *retrieval.Engine, question string, config model.QueryConfig) ([]*model.SearchResult, error) {
	vector, err := o.pipeline.Embedder(ctx, question)
	if err != nil {
		return nil, err
	}

	return engine.Nearest(ctx, vector, config.TopK, config.SimilarityThreshold)
}
