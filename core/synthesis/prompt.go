package synthesis

import (
	"strings"
)

// TaskSchema describes the tasks table to the language model.
const TaskSchema = `Table tasks (
    id BIGINT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    priority TEXT NOT NULL, -- e.g. high, medium, low
    category TEXT NOT NULL
)`

// Section markers of a completion, in the order they must appear
const (
	QueryMarker     = "QUERY:"
	TemplateMarker  = "TEMPLATE:"
	VariablesMarker = "VARIABLES:"
)

// BuildPrompt builds the prompt asking for a query, a response template and its variables.
func BuildPrompt(schema string, question string) string {
	var builder strings.Builder

	builder.WriteString("You are an SQL expert. Given this table schema:\n")
	builder.WriteString(schema)
	builder.WriteString("\n\n")

	builder.WriteString("For this question: '")
	builder.WriteString(question)
	builder.WriteString("'\n")

	builder.WriteString("Generate three things:\n")
	builder.WriteString("1. A PostgreSQL query to get the data. Select the columns id, title, description, priority, category in this order.\n")
	builder.WriteString("2. A natural language template to format the response\n")
	builder.WriteString("3. A mapping of variables\n\n")

	builder.WriteString("Format your response exactly like this:\n")
	builder.WriteString(QueryMarker + " <the SQL query>\n")
	builder.WriteString(TemplateMarker + " Found {count} tasks.\n")
	builder.WriteString(VariablesMarker + ` {"count": "len(results)"}` + "\n\n")

	builder.WriteString("Make sure:\n")
	builder.WriteString("- The query only reads data\n")
	builder.WriteString("- The template uses only simple variables in curly braces\n")
	builder.WriteString("- Variables JSON is properly formatted\n")
	builder.WriteString("- Always include 'count' in variables\n")

	return builder.String()
}
