package sql

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

//go:embed init.sql
var initSQL string

//go:embed tasks.sql
var tasksSQL string

//go:embed task_embeddings.sql
var taskEmbeddingsSQL string

//go:embed pdf_documents.sql
var pdfDocumentsSQL string

// Function lists for verification
var TasksFunctions = []string{
	"init_tasks",
	"insert_task",
	"select_task",
	"select_all_tasks",
	"delete_task",
}

var TaskEmbeddingsFunctions = []string{
	"init_task_embeddings",
	"upsert_task_embedding",
	"select_task_embeddings_by_similarity",
	"count_task_embeddings",
}

var PdfDocumentsFunctions = []string{
	"init_pdf_documents",
	"upsert_pdf_document",
	"select_pdf_documents_by_similarity",
	"select_pdf_documents_by_filename",
	"delete_pdf_documents_by_filename",
}

// Init intializes db extensions
func Init(db *sqlx.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	slog.Debug("Database extensions initialized successfully")
	return nil
}

// LoadTasksSql loads task-related SQL functions
func LoadTasksSql(db *sqlx.DB, force bool) error {
	return loadSql(db, "tasks", tasksSQL, TasksFunctions, force)
}

// LoadTaskEmbeddingsSql loads task embedding SQL functions
func LoadTaskEmbeddingsSql(db *sqlx.DB, force bool) error {
	return loadSql(db, "task_embeddings", taskEmbeddingsSQL, TaskEmbeddingsFunctions, force)
}

// LoadPdfDocumentsSql loads pdf document SQL functions
func LoadPdfDocumentsSql(db *sqlx.DB, force bool) error {
	return loadSql(db, "pdf_documents", pdfDocumentsSQL, PdfDocumentsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sqlx.DB, force bool) error {
	if err := LoadTasksSql(db, force); err != nil {
		return err
	}

	if err := LoadTaskEmbeddingsSql(db, force); err != nil {
		return err
	}

	if err := LoadPdfDocumentsSql(db, force); err != nil {
		return err
	}

	return nil
}

func loadSql(db *sqlx.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	slog.Debug("SQL functions loaded successfully", slog.String("set", name))
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sqlx.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			slog.Debug("Function does not exist", slog.String("function", f))
			break
		}
	}
	return allExist, nil
}
