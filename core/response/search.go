package response

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/taskrag/core/pipeline"
	"github.com/siherrmann/taskrag/model"
)

// SearchTemplate renders the matches of a similarity search
const SearchTemplate = "Found {count} similar tasks:\n{matches}"

// FormatSearchResponse builds the response of a similarity search.
// No results give the message "No matching tasks found.".
func (f *Formatter) FormatSearchResponse(question string, results []*model.SearchResult) model.FormattedResponse[model.SearchResult] {
	records := make([]model.SearchResult, 0, len(results))
	for _, result := range results {
		if result != nil {
			records = append(records, *result)
		}
	}

	if len(records) == 0 {
		return model.FormattedResponse[model.SearchResult]{
			Message:  model.MessageNoMatches,
			Query:    question,
			Response: model.MessageNoMatches,
			Results:  records,
			Count:    0,
		}
	}

	variables := map[string]any{
		"count":   len(records),
		"matches": FormatMatches(records),
	}

	return model.FormattedResponse[model.SearchResult]{
		Message:  model.MessageSearchSuccess,
		Query:    question,
		Response: RenderOrDefault(SearchTemplate, variables),
		Results:  records,
		Count:    len(records),
	}
}

// FormatMatches lists the results one per line, most similar first.
func FormatMatches(results []model.SearchResult) string {
	lines := make([]string, 0, len(results))
	for i, result := range results {
		lines = append(lines, fmt.Sprintf("%d. %s (similarity %.2f): %s", i+1, matchLabel(result), result.Similarity, result.Text))
	}
	return strings.Join(lines, "\n")
}

// Task results carry their title in the metadata; document chunks are labelled by source and page.
func matchLabel(result model.SearchResult) string {
	if title, ok := result.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return fmt.Sprintf("%s #%d", result.SourceRef, result.SequenceIndex)
}

// BuildSummaryPrompt asks the model to answer the question from the matches.
func BuildSummaryPrompt(question string, results []model.SearchResult) string {
	var builder strings.Builder

	builder.WriteString("Analyze the query result and provide a concise response to the original question.\n\n")
	builder.WriteString("Original Question: ")
	builder.WriteString(question)
	builder.WriteString("\nMost Similar Tasks:\n")
	builder.WriteString(FormatMatches(results))
	builder.WriteString("\n\nStrategies for response:\n")
	builder.WriteString("- Summarize the matched tasks.\n")
	builder.WriteString("- If no tasks match closely, explain the lack of results.\n")
	builder.WriteString("- Provide clear, actionable information.\n\n")
	builder.WriteString("Your response should directly address the question and provide meaningful insights.")

	return builder.String()
}

// Summarize replaces the rendered text of a non-empty search response with a model-written answer.
// Any failure keeps the rendered text.
func (f *Formatter) Summarize(ctx context.Context, complete pipeline.CompleteFunc, response model.FormattedResponse[model.SearchResult]) model.FormattedResponse[model.SearchResult] {
	if complete == nil || response.Count == 0 {
		return response
	}

	summary, err := complete(ctx, BuildSummaryPrompt(response.Query, response.Results))
	if err != nil {
		f.logger.Warn("Summarizing matches failed", slog.String("error", err.Error()))
		return response
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		f.logger.Warn("Summarizing matches returned no text")
		return response
	}

	response.Response = summary
	return response
}
