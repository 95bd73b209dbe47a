package synthesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/siherrmann/taskrag/model"
)

// ParseCompletion extracts the query triple from a raw completion.
// Sections are located in order. A missing template or variables section, or variables that
// are not a JSON object, fall back to the defaults. Only a missing or empty query is an error.
func ParseCompletion(raw string) (*model.SynthesizedQuery, error) {
	queryStart := strings.Index(raw, QueryMarker)
	if queryStart < 0 {
		return nil, fmt.Errorf("%w: no %s section in completion", model.ErrParse, QueryMarker)
	}
	rest := raw[queryStart+len(QueryMarker):]

	sqlText, rest, hasTemplate := strings.Cut(rest, TemplateMarker)
	templateText := ""
	variablesText := ""
	hasVariables := false
	if hasTemplate {
		templateText, variablesText, hasVariables = strings.Cut(rest, VariablesMarker)
	} else {
		sqlText, variablesText, hasVariables = strings.Cut(sqlText, VariablesMarker)
	}

	query := &model.SynthesizedQuery{
		SQL:               cleanSQL(sqlText),
		ResponseTemplate:  trimDecoration(templateText),
		TemplateVariables: model.DefaultTemplateVariables(),
	}
	if query.SQL == "" {
		return nil, fmt.Errorf("%w: empty %s section", model.ErrParse, QueryMarker)
	}
	if query.ResponseTemplate == "" {
		query.ResponseTemplate = model.DefaultResponseTemplate
	}

	if hasVariables {
		variables, err := parseVariables(variablesText)
		if err == nil {
			query.TemplateVariables = variables
		}
	}

	query.EnsureCount()

	return query, nil
}

// parseVariables decodes the first JSON value of the section, which must be an object.
func parseVariables(text string) (map[string]any, error) {
	text = stripFence(trimDecoration(text))

	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.UseNumber()

	var value any
	err := decoder.Decode(&value)
	if err != nil {
		return nil, fmt.Errorf("%w: variables: %v", model.ErrParse, err)
	}

	variables, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: variables are %T, not an object", model.ErrParse, value)
	}

	return variables, nil
}

func cleanSQL(text string) string {
	text = stripFence(trimDecoration(text))
	text = strings.TrimSpace(text)
	text = strings.TrimRight(text, "; \t\r\n")
	return strings.TrimSpace(text)
}

// trimDecoration removes markdown emphasis and heading marks left around a section,
// as in "**QUERY:** SELECT ...\n**TEMPLATE:** ...". A trailing run is only removed when it
// is separated from the text, so "SELECT 2*3" keeps its operator.
func trimDecoration(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "*# \t")

	trimmed := strings.TrimRight(text, "*#")
	if trimmed != text {
		if trimmed == "" || unicode.IsSpace(rune(trimmed[len(trimmed)-1])) {
			text = trimmed
		}
	}

	return strings.TrimSpace(text)
}

// stripFence removes a surrounding markdown code fence such as ```sql ... ```.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// language tag
	if newline := strings.IndexByte(text, '\n'); newline >= 0 {
		firstLine := strings.TrimSpace(text[:newline])
		if !strings.ContainsAny(firstLine, " {") {
			text = text[newline+1:]
		}
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}

	return strings.TrimSpace(text)
}
