package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
	"golang.org/x/sync/errgroup"
)

// Ingest chunks the text, embeds every chunk and upserts it into the store.
// Chunks that fail to embed or store are logged and skipped; the run continues.
// Invalid input, a chunking configuration error or a missing store is an error.
func (o *Orchestrator) Ingest(ctx context.Context, sourceRef string, text string) (*model.IngestReport, error) {
	if strings.TrimSpace(sourceRef) == "" {
		return nil, fmt.Errorf("%w: source ref is required", model.ErrValidation)
	}
	if o.store == nil {
		return nil, fmt.Errorf("%w: no vector store", model.ErrConfiguration)
	}
	if o.pipeline.Embedder == nil {
		return nil, fmt.Errorf("%w: pipeline has no embedder", model.ErrConfiguration)
	}

	report := &model.IngestReport{
		RunID:     uuid.New(),
		SourceRef: sourceRef,
		IDs:       []int64{},
		StartedAt: time.Now(),
	}
	log := o.log.With(slog.String("run_id", report.RunID.String()), slog.String("source_ref", sourceRef))

	chunks, err := o.pipeline.Split(sourceRef, text)
	if err != nil {
		return nil, helper.NewError("split", err)
	}
	report.Chunks = len(chunks)

	ids := make([]int64, len(chunks))
	stored := make([]bool, len(chunks))
	var mu sync.Mutex

	g := errgroup.Group{}
	g.SetLimit(o.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			id, err := o.ingestChunk(ctx, chunk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Skipped++
				log.Warn("Skipping chunk", slog.Int("sequence_index", chunk.SequenceIndex), slog.String("error", err.Error()))
				return nil
			}
			report.Stored++
			ids[i] = id
			stored[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range ids {
		if stored[i] {
			report.IDs = append(report.IDs, id)
		}
	}
	report.Duration = time.Since(report.StartedAt)

	log.Info("Ingested source", slog.Int("chunks", report.Chunks), slog.Int("stored", report.Stored), slog.Int("skipped", report.Skipped))

	if err := ctx.Err(); err != nil {
		return report, helper.NewError("ingest", err)
	}

	return report, nil
}

func (o *Orchestrator) ingestChunk(ctx context.Context, chunk *model.Chunk) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	embedded, err := o.pipeline.Embed(ctx, chunk)
	if err != nil {
		return 0, helper.NewError("embed", err)
	}

	id, err := o.store.UpsertRecord(ctx, model.NewStoredRecord(embedded))
	if err != nil {
		return 0, helper.NewError("upsert", err)
	}

	return id, nil
}

// EmbedTasks embeds the description of every task and upserts it into the task embedding store.
// Tasks that fail are logged and skipped.
func (o *Orchestrator) EmbedTasks(ctx context.Context, tasks []*model.Task, store TaskEmbeddingStore) (*model.IngestReport, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: no task embedding store", model.ErrConfiguration)
	}
	if o.pipeline.Embedder == nil {
		return nil, fmt.Errorf("%w: pipeline has no embedder", model.ErrConfiguration)
	}

	report := &model.IngestReport{
		RunID:     uuid.New(),
		SourceRef: "tasks",
		Chunks:    len(tasks),
		IDs:       []int64{},
		StartedAt: time.Now(),
	}
	log := o.log.With(slog.String("run_id", report.RunID.String()))

	stored := make([]bool, len(tasks))
	var mu sync.Mutex

	g := errgroup.Group{}
	g.SetLimit(o.concurrency)
	for i, task := range tasks {
		g.Go(func() error {
			err := o.embedTask(ctx, task, store)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Skipped++
				log.Warn("Skipping task", slog.Int64("task_id", task.ID), slog.String("error", err.Error()))
				return nil
			}
			report.Stored++
			stored[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for i, task := range tasks {
		if stored[i] {
			report.IDs = append(report.IDs, task.ID)
		}
	}
	report.Duration = time.Since(report.StartedAt)

	log.Info("Embedded tasks", slog.Int("tasks", report.Chunks), slog.Int("stored", report.Stored), slog.Int("skipped", report.Skipped))

	if err := ctx.Err(); err != nil {
		return report, helper.NewError("embed tasks", err)
	}

	return report, nil
}

func (o *Orchestrator) embedTask(ctx context.Context, task *model.Task, store TaskEmbeddingStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	vector, err := o.pipeline.Embedder(ctx, task.Description)
	if err != nil {
		return helper.NewError("embed", err)
	}

	err = store.UpsertTaskEmbedding(ctx, &model.TaskEmbedding{
		TaskID:      task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Category:    task.Category,
		CreatedAt:   time.Now(),
		Embedding:   vector,
	})
	if err != nil {
		return helper.NewError("upsert", err)
	}

	return nil
}
