package commands

import (
	"context"

	"github.com/siherrmann/taskrag/model"
	"github.com/urfave/cli/v3"
)

// TaskAddResponse is printed after a task was added
type TaskAddResponse struct {
	Message string `json:"message"`
	TaskID  int64  `json:"task_id"`
}

// TaskAddAction adds a task
func TaskAddAction(ctx context.Context, cmd *cli.Command) error {
	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	id, err := r.AddTask(ctx, &model.Task{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Priority:    cmd.String("priority"),
		Category:    cmd.String("category"),
	})
	if err != nil {
		return err
	}

	return printJSON(cmd, TaskAddResponse{Message: "Task added successfully", TaskID: id})
}

// TaskListAction prints all tasks
func TaskListAction(ctx context.Context, cmd *cli.Command) error {
	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	tasks, err := r.ListTasks(ctx)
	if err != nil {
		return err
	}

	return printJSON(cmd, tasks)
}

// TaskDeleteAction deletes a task
func TaskDeleteAction(ctx context.Context, cmd *cli.Command) error {
	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	id := int64(cmd.Int("id"))
	err = r.DeleteTask(ctx, id)
	if err != nil {
		return err
	}

	return printJSON(cmd, TaskAddResponse{Message: "Task deleted successfully", TaskID: id})
}

// TaskEmbedAction embeds all task descriptions
func TaskEmbedAction(ctx context.Context, cmd *cli.Command) error {
	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := r.PopulateTaskEmbeddings(ctx)
	if err != nil {
		return err
	}

	return printJSON(cmd, report)
}
