package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/taskrag/model"
	"github.com/urfave/cli/v3"
)

// DocumentDeleteResponse is printed after the chunks of a source were removed
type DocumentDeleteResponse struct {
	Message   string `json:"message"`
	SourceRef string `json:"source_ref"`
	Deleted   int    `json:"deleted"`
}

// IngestAction ingests a pdf or text file
func IngestAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	isPDF := isPDFFile(path)
	if isPDF && cmd.String("source") != "" {
		return fmt.Errorf("%w: pdf files are stored under their file name, --source only applies to text files", model.ErrValidation)
	}

	var text string
	if !isPDF {
		var err error
		text, err = readText(path)
		if err != nil {
			return err
		}
	}

	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	var report *model.IngestReport
	if isPDF {
		report, err = r.IngestPDF(ctx, path)
	} else {
		report, err = r.Ingest(ctx, sourceRef(cmd, path), text)
	}
	if err != nil {
		return err
	}

	return printJSON(cmd, report)
}

// DocumentDeleteAction removes all stored chunks of one source
func DocumentDeleteAction(ctx context.Context, cmd *cli.Command) error {
	source := strings.TrimSpace(cmd.String("source"))
	if source == "" {
		return fmt.Errorf("%w: --source is required", model.ErrValidation)
	}

	r, err := newTaskRAG(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	deleted, err := r.DeleteDocument(ctx, source)
	if err != nil {
		return err
	}

	return printJSON(cmd, DocumentDeleteResponse{Message: "Document deleted successfully", SourceRef: source, Deleted: deleted})
}

func isPDFFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func sourceRef(cmd *cli.Command, path string) string {
	if source := cmd.String("source"); source != "" {
		return source
	}
	return filepath.Base(path)
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is given by the operator
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}
