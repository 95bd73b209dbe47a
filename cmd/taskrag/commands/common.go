package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/siherrmann/taskrag"
	"github.com/siherrmann/taskrag/helper"
	"github.com/urfave/cli/v3"
)

// newTaskRAG loads the environment and configuration named by the global flags and connects.
// Logs go to stderr so that stdout only carries the JSON result.
func newTaskRAG(cmd *cli.Command) (*taskrag.TaskRAG, error) {
	err := helper.LoadEnv(cmd.String("env"))
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stderr, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	}))
	slog.SetDefault(logger)

	config, err := helper.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}

	return taskrag.NewTaskRAG(dbConfig, config, taskrag.WithLogger(logger))
}

// printJSON writes v as indented JSON to the command's writer
func printJSON(cmd *cli.Command, v any) error {
	encoder := json.NewEncoder(writer(cmd))
	encoder.SetIndent("", "  ")
	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}
