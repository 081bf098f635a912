package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atsscore/internal/errors"
	"atsscore/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadDocument(t *testing.T) {
	fp := NewFileProcessor(nil)

	t.Run("json is kept verbatim", func(t *testing.T) {
		path := writeTemp(t, "request.json", `{"resume_text":"x"}`)
		doc, err := fp.ReadDocument(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "json", doc.FileType)
		assert.Equal(t, `{"resume_text":"x"}`, doc.Text)
	})

	t.Run("html is extracted", func(t *testing.T) {
		path := writeTemp(t, "resume.html", "<html><body><p>Jane Doe</p><script>x()</script></body></html>")
		doc, err := fp.ReadDocument(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "html", doc.FileType)
		assert.Contains(t, doc.Text, "Jane Doe")
		assert.NotContains(t, doc.Text, "x()")
	})
}

func TestValidateAndReadFiles(t *testing.T) {
	fp := NewFileProcessor(errors.Discard())

	a := writeTemp(t, "a.txt", "first")
	b := writeTemp(t, "b.md", "second")
	docs, err := fp.ValidateAndReadFiles(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first", docs[0].Text)
	assert.Equal(t, "md", docs[1].FileType)

	_, err = fp.ValidateAndReadFiles(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	fp := NewFileProcessor(nil)
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.txt")

	require.NoError(t, fp.WriteFile(path, "report"))
	content, err := fp.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "report", content)
}

func TestHandleOutput(t *testing.T) {
	oh := NewOutputHandler(nil)
	var buf bytes.Buffer
	oh.SetStdout(&buf)

	require.NoError(t, oh.HandleOutput(map[string]int{"score": 80}, CommandConfig{OutputFormat: "json"}))
	assert.Contains(t, buf.String(), `"score": 80`)

	err := oh.HandleOutput(map[string]int{"score": 80}, CommandConfig{OutputFormat: "pdf"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	path := filepath.Join(t.TempDir(), "out", "report.yaml")
	require.NoError(t, oh.HandleOutput(map[string]int{"score": 80}, CommandConfig{OutputFile: path, OutputFormat: "yaml"}))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "score: 80\n", string(content))
}

func TestRunCommand(t *testing.T) {
	in := writeTemp(t, "resume.txt", "Led a team of five")
	out := filepath.Join(t.TempDir(), "result.json")

	var logged bool
	err := RunCommand(context.Background(), nil,
		CommandConfig{OutputFile: out, OutputFormat: "json"},
		[]string{in},
		func(docs []*extract.Document) (string, error) {
			return docs[0].Text, nil
		},
		func(_ context.Context, text string) (map[string]int, error) {
			return map[string]int{"words": len(strings.Fields(text))}, nil
		},
		func(string, CommandConfig) { logged = true },
	)
	require.NoError(t, err)
	assert.True(t, logged)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"words": 5`)
}
