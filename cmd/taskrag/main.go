package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/siherrmann/taskrag/cmd/taskrag/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "taskrag",
		Usage: "Ask questions about tasks and documents with SQL synthesis and vector search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "environment file path",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML configuration file path",
				Value: "taskrag.yaml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "task",
				Usage: "task management commands",
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "add a task",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "title",
								Usage:    "task title",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "task description",
							},
							&cli.StringFlag{
								Name:     "priority",
								Usage:    "task priority (high, medium, low)",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "category",
								Usage: "task category",
							},
						},
						Action: commands.TaskAddAction,
					},
					{
						Name:   "list",
						Usage:  "list all tasks",
						Action: commands.TaskListAction,
					},
					{
						Name:  "delete",
						Usage: "delete a task and its embedding",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:     "id",
								Usage:    "task id",
								Required: true,
							},
						},
						Action: commands.TaskDeleteAction,
					},
					{
						Name:   "embed",
						Usage:  "embed the descriptions of all tasks for similarity search",
						Action: commands.TaskEmbedAction,
					},
				},
			},
			{
				Name:  "ingest",
				Usage: "chunk, embed and store a text or pdf file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "file path (.pdf files are read page by page)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "source reference of a text file (default: file name)",
					},
				},
				Action: commands.IngestAction,
			},
			{
				Name:  "document",
				Usage: "ingested document commands",
				Commands: []*cli.Command{
					{
						Name:  "delete",
						Usage: "delete all chunks of a source",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "source",
								Usage:    "source reference (file name for pdf files)",
								Required: true,
							},
						},
						Action: commands.DocumentDeleteAction,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "answer a question with a synthesized SQL query",
				ArgsUsage: "<question>",
				Action:    commands.AskAction,
			},
			{
				Name:      "search",
				Usage:     "answer a question with a similarity search",
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "target",
						Usage: "what to search (tasks or documents)",
						Value: commands.TargetTasks,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "maximum number of results (default: from config)",
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "minimum similarity in [0, 1] (default: from config)",
						Value: -1,
					},
					&cli.BoolFlag{
						Name:  "summarize",
						Usage: "let the completion model summarize the matches",
					},
				},
				Action: commands.SearchAction,
			},
			{
				Name:  "index",
				Usage: "change the vector index of a table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "table",
						Usage: "task_embeddings or pdf_documents",
						Value: "task_embeddings",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "hnsw or ivfflat",
						Value: "hnsw",
					},
					&cli.IntFlag{
						Name:  "m",
						Usage: "HNSW max connections per layer",
						Value: 16,
					},
					&cli.IntFlag{
						Name:  "ef-construction",
						Usage: "HNSW candidate list size",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "lists",
						Usage: "IVFFlat number of lists",
						Value: 100,
					},
				},
				Action: commands.IndexAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
