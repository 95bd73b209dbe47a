package commands

import (
	"context"

	"github.com/urfave/cli/v3"
)

// IndexAction replaces the vector index of a table
func IndexAction(ctx context.Context, cmd *cli.Command) error {
	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	table := cmd.String("table")
	indexType := cmd.String("type")
	params := map[string]interface{}{
		"m":               cmd.Int("m"),
		"ef_construction": cmd.Int("ef-construction"),
		"lists":           cmd.Int("lists"),
	}

	err = r.ChangeIndexType(ctx, table, indexType, params)
	if err != nil {
		return err
	}

	return printJSON(cmd, map[string]any{
		"message": "Index changed successfully",
		"table":   table,
		"type":    indexType,
	})
}
