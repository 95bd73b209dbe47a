package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageQuerySuccess  = "Query executed successfully"
	MessageSearchSuccess = "Search executed successfully"
	MessageNoMatches     = "No matching tasks found."
)

// FormattedResponse is the answer returned to the caller of a question.
// T is TaskRecord for the SQL path and SearchResult for the similarity path.
type FormattedResponse[T any] struct {
	Message  string `json:"message"`
	Query    string `json:"query"`
	Response string `json:"response"`
	Results  []T    `json:"results"`
	Count    int    `json:"count"`
}

// IngestReport summarises one ingestion run. Partial ingestion is reported, not failed.
type IngestReport struct {
	RunID     uuid.UUID     `json:"run_id"`
	SourceRef string        `json:"source_ref"`
	Chunks    int           `json:"chunks"`
	Stored    int           `json:"stored"`
	Skipped   int           `json:"skipped"`
	IDs       []int64       `json:"ids"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}
