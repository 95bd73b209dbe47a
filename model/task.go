package model

import (
	"fmt"
	"strings"
	"time"
)

// Task is a row of the tasks table.
type Task struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Priority    string `json:"priority" db:"priority"`
	Category    string `json:"category" db:"category"`
}

// Validate checks the fields required to create a task.
func (t *Task) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: task is nil", ErrValidation)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: task title is required", ErrValidation)
	}
	if strings.TrimSpace(t.Priority) == "" {
		return fmt.Errorf("%w: task priority is required", ErrValidation)
	}
	return nil
}

// TaskEmbedding is a row of the task_embeddings table.
// Task fields are denormalised so similarity results can be shown without a join.
type TaskEmbedding struct {
	TaskID      int64     `json:"task_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// TaskColumns is the fixed positional column order of a task row.
var TaskColumns = []string{"id", "title", "description", "priority", "category"}

// TaskRecord is a named record built from a positional task row.
type TaskRecord struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}
