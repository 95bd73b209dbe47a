package response

import (
	"fmt"
	"strings"

	"github.com/siherrmann/taskrag/model"
)

// ResolveVariables returns a copy of variables where every row count placeholder
// is replaced by rowCount. "count" is always present in the result.
func ResolveVariables(variables map[string]any, rowCount int) map[string]any {
	resolved := make(map[string]any, len(variables)+1)
	for key, value := range variables {
		if s, ok := value.(string); ok && s == model.RowCountPlaceholder {
			resolved[key] = rowCount
			continue
		}
		resolved[key] = value
	}

	if _, ok := resolved["count"]; !ok {
		resolved["count"] = rowCount
	}

	return resolved
}

// Render substitutes {name} placeholders with the named variables.
// "{{" and "}}" produce literal braces. An unknown name or an unbalanced brace is an error.
func Render(template string, variables map[string]any) (string, error) {
	var builder strings.Builder

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				builder.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := strings.TrimSpace(template[i+1 : i+1+end])
			value, ok := variables[name]
			if !ok {
				return "", fmt.Errorf("unknown template variable %q", name)
			}
			builder.WriteString(fmt.Sprint(value))
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				builder.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("single '}' at offset %d", i)
		default:
			builder.WriteByte(c)
		}
	}

	return builder.String(), nil
}

// RenderOrDefault renders the template and falls back to the default
// "Found {count} matching tasks." message on any substitution error.
func RenderOrDefault(template string, variables map[string]any) string {
	rendered, err := Render(template, variables)
	if err != nil {
		return defaultMessage(variables["count"])
	}
	return rendered
}

func defaultMessage(count any) string {
	rendered, err := Render(model.DefaultResponseTemplate, map[string]any{"count": count})
	if err != nil {
		return fmt.Sprintf("Found %v matching tasks.", count)
	}
	return rendered
}
