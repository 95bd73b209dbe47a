package response

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/siherrmann/taskrag/model"
)

// Formatter turns query rows and search results into responses. It never fails.
type Formatter struct {
	logger *slog.Logger
}

// NewFormatter creates a formatter. A nil logger uses slog.Default.
func NewFormatter(logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{logger: logger}
}

// FormatTaskResults maps positional rows to task records in the column order of model.TaskColumns.
// Rows of the wrong arity or with an id that is not an integer are skipped.
func (f *Formatter) FormatTaskResults(rows [][]any) []model.TaskRecord {
	records := make([]model.TaskRecord, 0, len(rows))
	for i, row := range rows {
		record, err := taskRecordFromRow(row)
		if err != nil {
			f.logger.Warn("Skipping malformed row", slog.Int("row", i), slog.String("error", err.Error()))
			continue
		}
		records = append(records, record)
	}
	return records
}

// FormatResponse builds the response of a synthesized query.
// Count is always the number of formatted rows, whatever the template variables say.
func (f *Formatter) FormatResponse(template string, variables map[string]any, rows [][]any, query string) (response model.FormattedResponse[model.TaskRecord]) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Formatting failed", slog.Any("panic", r))
			response = model.FormattedResponse[model.TaskRecord]{
				Message:  model.MessageQuerySuccess,
				Query:    query,
				Response: defaultMessage(0),
				Results:  []model.TaskRecord{},
				Count:    0,
			}
		}
	}()

	results := f.FormatTaskResults(rows)
	resolved := ResolveVariables(variables, len(results))

	return model.FormattedResponse[model.TaskRecord]{
		Message:  model.MessageQuerySuccess,
		Query:    query,
		Response: RenderOrDefault(template, resolved),
		Results:  results,
		Count:    len(results),
	}
}

func taskRecordFromRow(row []any) (model.TaskRecord, error) {
	if len(row) != len(model.TaskColumns) {
		return model.TaskRecord{}, fmt.Errorf("expected %d columns, got %d", len(model.TaskColumns), len(row))
	}

	id, err := toInt64(row[0])
	if err != nil {
		return model.TaskRecord{}, fmt.Errorf("column id: %w", err)
	}

	return model.TaskRecord{
		ID:          id,
		Title:       toString(row[1]),
		Description: toString(row[2]),
		Priority:    toString(row[3]),
		Category:    toString(row[4]),
	}, nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
