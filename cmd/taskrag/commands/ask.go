package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/taskrag/model"
	"github.com/urfave/cli/v3"
)

// Search targets
const (
	TargetTasks     = "tasks"
	TargetDocuments = "documents"
)

// AskAction answers a question with a synthesized SQL query
func AskAction(ctx context.Context, cmd *cli.Command) error {
	question := strings.Join(cmd.Args().Slice(), " ")

	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	response, err := r.AnswerQuestion(ctx, question)
	if err != nil {
		return err
	}

	return printJSON(cmd, response)
}

// SearchAction answers a question with a similarity search over tasks or documents
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	question := strings.Join(cmd.Args().Slice(), " ")
	target := cmd.String("target")
	if target != TargetTasks && target != TargetDocuments {
		return fmt.Errorf("%w: unknown search target %q", model.ErrValidation, target)
	}

	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	config := r.Config().Search
	if cmd.IsSet("top-k") {
		config.TopK = cmd.Int("top-k")
	}
	if cmd.IsSet("threshold") {
		config.SimilarityThreshold = cmd.Float("threshold")
	}
	if cmd.Bool("summarize") {
		config.Summarize = true
	}

	var response model.FormattedResponse[model.SearchResult]
	if target == TargetDocuments {
		response, err = r.SearchDocuments(ctx, question, &config)
	} else {
		response, err = r.SearchTasks(ctx, question, &config)
	}
	if err != nil {
		return err
	}

	return printJSON(cmd, response)
}
