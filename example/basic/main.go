package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/taskrag"
	"github.com/siherrmann/taskrag/helper"
	"github.com/siherrmann/taskrag/model"
)

const sampleNotes = `The quarterly report is due at the end of the month.
It needs the revenue numbers from finance and a short summary of open risks.

The office move is planned for the second week of next month.
Everybody has to pack their desk and label the boxes with their name.`

var sampleTasks = []*model.Task{
	{Title: "Write quarterly report", Description: "Collect revenue numbers and summarize risks", Priority: "high", Category: "work"},
	{Title: "Pack desk", Description: "Pack and label boxes for the office move", Priority: "medium", Category: "office"},
	{Title: "Buy groceries", Description: "Milk, bread and coffee for the week", Priority: "low", Category: "personal"},
}

func main() {
	ctx := context.Background()

	// The default configuration uses OpenAI for embeddings and completions
	err := helper.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	r, err := taskrag.NewTaskRAG(dbConfig, model.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to create taskrag: %v", err)
	}
	defer r.Close()

	for _, task := range sampleTasks {
		id, err := r.AddTask(ctx, task)
		if err != nil {
			log.Fatalf("Failed to add task: %v", err)
		}
		fmt.Printf("Added task %d: %s\n", id, task.Title)
	}

	report, err := r.PopulateTaskEmbeddings(ctx)
	if err != nil {
		log.Fatalf("Failed to embed tasks: %v", err)
	}
	fmt.Printf("Embedded %d of %d tasks\n", report.Stored, report.Chunks)

	report, err = r.Ingest(ctx, "notes", sampleNotes)
	if err != nil {
		log.Fatalf("Failed to ingest notes: %v", err)
	}
	fmt.Printf("Stored %d chunks of %s\n", report.Stored, report.SourceRef)

	// Structured question answered with a synthesized SQL query
	answer, err := r.AnswerQuestion(ctx, "How many high priority tasks are there?")
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}
	fmt.Printf("\nQuery: %s\n%s\n", answer.Query, answer.Response)

	// Fuzzy question answered with a similarity search
	config := model.DefaultQueryConfig()
	config.TopK = 2

	tasks, err := r.SearchTasks(ctx, "What do I need for the office move?", &config)
	if err != nil {
		log.Fatalf("Failed to search tasks: %v", err)
	}
	fmt.Printf("\n%s\n", tasks.Response)

	documents, err := r.SearchDocuments(ctx, "When is the report due?", &config)
	if err != nil {
		log.Fatalf("Failed to search documents: %v", err)
	}
	fmt.Printf("\n%s\n", documents.Response)

	fmt.Println("\nBasic example completed successfully!")
}
