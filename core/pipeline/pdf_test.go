package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPDFText(t *testing.T) {
	t.Run("Missing file returns an error", func(t *testing.T) {
		_, err := ExtractPDFText(filepath.Join(t.TempDir(), "missing.pdf"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open pdf")
	})

	t.Run("File that is not a pdf returns an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.pdf")
		require.NoError(t, os.WriteFile(path, []byte("just some text"), 0600))

		_, err := ExtractPDFText(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read pdf")
	})
}
