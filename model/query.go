package model

// RowCountPlaceholder marks a template variable whose value is the number of result rows.
const RowCountPlaceholder = "len(results)"

const (
	// DefaultResponseTemplate is used when a completion has no template section.
	DefaultResponseTemplate = "Found {count} matching tasks."
	// FallbackSQL, FallbackTemplate are the safe query and template used when synthesis fails.
	FallbackSQL      = "SELECT * FROM tasks"
	FallbackTemplate = "Found {count} tasks."
)

// SynthesizedQuery is the (sql, template, variables) triple produced for one question.
type SynthesizedQuery struct {
	SQL               string         `json:"sql"`
	ResponseTemplate  string         `json:"response_template"`
	TemplateVariables map[string]any `json:"template_variables"`
	// Fallback is true when this is the safe default triple.
	Fallback bool `json:"fallback"`
}

// DefaultTemplateVariables returns the variables map holding only the row count placeholder.
func DefaultTemplateVariables() map[string]any {
	return map[string]any{"count": RowCountPlaceholder}
}

// FallbackQuery returns a fresh copy of the fallback triple.
func FallbackQuery() *SynthesizedQuery {
	return &SynthesizedQuery{
		SQL:               FallbackSQL,
		ResponseTemplate:  FallbackTemplate,
		TemplateVariables: DefaultTemplateVariables(),
		Fallback:          true,
	}
}

// EnsureCount injects the row count placeholder if "count" is missing.
func (q *SynthesizedQuery) EnsureCount() {
	if q.TemplateVariables == nil {
		q.TemplateVariables = map[string]any{}
	}
	if _, ok := q.TemplateVariables["count"]; !ok {
		q.TemplateVariables["count"] = RowCountPlaceholder
	}
}
