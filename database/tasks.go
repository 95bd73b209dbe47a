package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
	loadSql "github.com/siherrmann/taskrag/sql"
)

// TasksDBHandlerFunctions defines the interface for Tasks database operations.
type TasksDBHandlerFunctions interface {
	InsertTask(ctx context.Context, task *model.Task) error
	SelectTask(ctx context.Context, id int64) (*model.Task, error)
	SelectAllTasks(ctx context.Context) ([]*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ExecuteReadOnly(ctx context.Context, query string) ([][]any, error)
}

// TasksDBHandler handles task-related database operations
type TasksDBHandler struct {
	db *helper.Database
}

// NewTasksDBHandler creates a new tasks database handler.
// It loads the task SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTasksDBHandler(db *helper.Database, force bool) (*TasksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	tasksDbHandler := &TasksDBHandler{
		db: db,
	}

	err := loadSql.LoadTasksSql(tasksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load tasks sql", err)
	}

	err = tasksDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TasksDBHandler")

	return tasksDbHandler, nil
}

// CreateTable creates the 'tasks' table in the database.
// If the table already exists, it does not create it again.
func (h *TasksDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_tasks();`)
	if err != nil {
		log.Panicf("error initializing tasks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table tasks")

	return nil
}

// InsertTask inserts a new task in its own transaction and sets task.ID.
func (h *TasksDBHandler) InsertTask(ctx context.Context, task *model.Task) error {
	if err := task.Validate(); err != nil {
		return helper.NewError("validate task", err)
	}

	return h.db.Transact(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			`SELECT insert_task($1, $2, $3, $4)`,
			task.Title,
			task.Description,
			task.Priority,
			task.Category,
		).Scan(&task.ID)
		if err != nil {
			return helper.NewError("scan", err)
		}
		return nil
	})
}

// SelectTask retrieves a task by id
func (h *TasksDBHandler) SelectTask(ctx context.Context, id int64) (*model.Task, error) {
	task := &model.Task{}
	err := h.db.Instance.GetContext(ctx, task, `SELECT * FROM select_task($1)`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, helper.NewError("select task", fmt.Errorf("task %d not found: %w", id, err))
		}
		return nil, helper.NewError("scan", err)
	}

	return task, nil
}

// SelectAllTasks retrieves all tasks ordered by id
func (h *TasksDBHandler) SelectAllTasks(ctx context.Context) ([]*model.Task, error) {
	tasks := []*model.Task{}
	err := h.db.Instance.SelectContext(ctx, &tasks, `SELECT * FROM select_all_tasks()`)
	if err != nil {
		return nil, helper.NewError("select", err)
	}

	return tasks, nil
}

// DeleteTask deletes a task. Its embedding is removed by the foreign key cascade.
func (h *TasksDBHandler) DeleteTask(ctx context.Context, id int64) error {
	var deleted bool
	err := h.db.Instance.QueryRowxContext(ctx, `SELECT delete_task($1)`, id).Scan(&deleted)
	if err != nil {
		return helper.NewError("exec", err)
	}
	if !deleted {
		return helper.NewError("delete task", fmt.Errorf("task %d not found: %w", id, sql.ErrNoRows))
	}

	return nil
}

// ExecuteReadOnly runs a single arbitrary statement inside a read-only transaction that is
// always rolled back and returns the rows as positional tuples.
// Any failure is reported as model.ErrExecution.
func (h *TasksDBHandler) ExecuteReadOnly(ctx context.Context, query string) ([][]any, error) {
	results := [][]any{}

	err := h.db.ReadOnly(ctx, func(tx *sqlx.Tx) error {
		// A prepared statement holds exactly one command, so "COMMIT; DELETE ..." is rejected
		// instead of ending the read-only transaction.
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		rows, err := stmt.QueryxContext(ctx)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			row, err := rows.SliceScan()
			if err != nil {
				return err
			}
			for i, v := range row {
				// lib/pq returns unknown types such as numeric as raw bytes
				if b, ok := v.([]byte); ok {
					row[i] = string(b)
				}
			}
			results = append(results, row)
		}

		return rows.Err()
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return nil, helper.NewError("execute", fmt.Errorf("%w: %s (%s): %s", model.ErrExecution, pqErr.Code.Name(), pqErr.Code, pqErr.Message))
		}
		return nil, helper.NewError("execute", fmt.Errorf("%w: %w", model.ErrExecution, err))
	}

	return results, nil
}
