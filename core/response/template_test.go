package response

import (
	"encoding/json"
	"testing"

	"github.com/siherrmann/taskrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVariables(t *testing.T) {
	t.Run("Placeholders are replaced by the row count", func(t *testing.T) {
		resolved := ResolveVariables(map[string]any{
			"count": model.RowCountPlaceholder,
			"total": model.RowCountPlaceholder,
			"kind":  "high",
		}, 4)

		assert.Equal(t, map[string]any{"count": 4, "total": 4, "kind": "high"}, resolved)
	})

	t.Run("Missing count is injected", func(t *testing.T) {
		resolved := ResolveVariables(map[string]any{"kind": "low"}, 2)
		assert.Equal(t, 2, resolved["count"])
	})

	t.Run("Nil variables still give a count", func(t *testing.T) {
		resolved := ResolveVariables(nil, 0)
		assert.Equal(t, map[string]any{"count": 0}, resolved)
	})

	t.Run("Input is not modified", func(t *testing.T) {
		variables := model.DefaultTemplateVariables()
		_ = ResolveVariables(variables, 7)
		assert.Equal(t, model.RowCountPlaceholder, variables["count"])
	})
}

func TestRender(t *testing.T) {
	t.Run("Named placeholders are substituted", func(t *testing.T) {
		rendered, err := Render("Found {count} {kind} tasks.", map[string]any{"count": 3, "kind": "urgent"})
		require.NoError(t, err)
		assert.Equal(t, "Found 3 urgent tasks.", rendered)
	})

	t.Run("Doubled braces are literal", func(t *testing.T) {
		rendered, err := Render("{{count}} is {count}", map[string]any{"count": 1})
		require.NoError(t, err)
		assert.Equal(t, "{count} is 1", rendered)
	})

	t.Run("JSON numbers are printed as written", func(t *testing.T) {
		rendered, err := Render("{n}", map[string]any{"n": json.Number("2.5")})
		require.NoError(t, err)
		assert.Equal(t, "2.5", rendered)
	})

	t.Run("Unknown variable is an error", func(t *testing.T) {
		_, err := Render("Found {total} tasks.", map[string]any{"count": 3})
		assert.Error(t, err)
	})

	t.Run("Unbalanced braces are an error", func(t *testing.T) {
		_, err := Render("Found {count tasks.", map[string]any{"count": 3})
		assert.Error(t, err)

		_, err = Render("Found count} tasks.", map[string]any{"count": 3})
		assert.Error(t, err)
	})

	t.Run("Multi-byte text is kept", func(t *testing.T) {
		rendered, err := Render("Gefunden: {count} Aufgaben ✓", map[string]any{"count": 2})
		require.NoError(t, err)
		assert.Equal(t, "Gefunden: 2 Aufgaben ✓", rendered)
	})
}

func TestRenderOrDefault(t *testing.T) {
	t.Run("Substitution failure uses the default message", func(t *testing.T) {
		rendered := RenderOrDefault("There are {unknown} tasks.", map[string]any{"count": 5})
		assert.Equal(t, "Found 5 matching tasks.", rendered)
	})

	t.Run("Valid template is rendered", func(t *testing.T) {
		rendered := RenderOrDefault(model.FallbackTemplate, map[string]any{"count": 0})
		assert.Equal(t, "Found 0 tasks.", rendered)
	})
}
