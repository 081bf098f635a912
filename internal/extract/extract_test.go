package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"atsscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Experience </w:t></w:r><w:r><w:tab/><w:t>2019-2024</w:t></w:r></w:p>
    <w:p><w:r><w:t>- Built APIs</w:t><w:br/><w:t>- Led a team of 4</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestFromBytesDOCX(t *testing.T) {
	data := buildDOCX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})

	text, err := FromBytes(context.Background(), data, "docx")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nExperience \t2019-2024\n- Built APIs\n- Led a team of 4", text)
}

func TestFromBytesDOCXWithoutDocument(t *testing.T) {
	data := buildDOCX(t, map[string]string{"word/styles.xml": "<styles/>"})

	_, err := FromBytes(context.Background(), data, "docx")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	assert.Contains(t, err.Error(), "EXTRACTION_FAILED")
}

func TestFromBytesErrors(t *testing.T) {
	ctx := context.Background()

	_, err := FromBytes(ctx, []byte("%PDF-garbage"), "pdf")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))

	_, err = FromBytes(ctx, []byte("x"), "odt")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = FromBytes(ctx, nil, "docx")
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = FromBytes(cancelled, []byte("text"), "txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromBytesPDFPanic(t *testing.T) {
	orig := pdfText
	t.Cleanup(func() { pdfText = orig })
	pdfText = func([]byte) (string, error) {
		panic("malformed xref")
	}

	_, err := FromBytes(context.Background(), []byte("%PDF-1.4"), "pdf")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	assert.Contains(t, err.Error(), "EXTRACTION_FAILED")
	assert.Contains(t, err.Error(), "malformed xref")
}

func TestFromFile(t *testing.T) {
	content := bytes.Repeat([]byte("Jane Doe builds APIs.\n"), 100)
	path := writeFile(t, "resume.TXT", content)

	doc, err := FromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "txt", doc.FileType)
	assert.Equal(t, string(content), doc.Text)
	assert.Equal(t, 2.1, doc.SizeKB)

	_, err = FromFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestHTMLToText(t *testing.T) {
	html := `<html><head><title>Job</title><style>.x{color:red}</style></head>
<body>
  <nav>Home | Jobs</nav>
  <h1>Senior Go Engineer</h1>
  <p>We build <b>distributed</b> systems.</p>
  <ul><li>Kubernetes</li><li>PostgreSQL</li></ul>
  <script>track()</script>
  <footer>© Acme</footer>
</body></html>`

	text, err := HTMLToText(html)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer\nWe build distributed systems.\nKubernetes\nPostgreSQL", text)
}

func TestJobDescriptionFromFile(t *testing.T) {
	htmlPath := writeFile(t, "posting.html", []byte(`<body><p>Go</p><script>x()</script><p>Docker</p></body>`))
	text, err := JobDescriptionFromFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "Go\nDocker", text)

	txtPath := writeFile(t, "posting.txt", []byte("Plain <b>text</b> stays"))
	text, err = JobDescriptionFromFile(txtPath)
	require.NoError(t, err)
	assert.Equal(t, "Plain <b>text</b> stays", text)

	_, err = JobDescriptionFromFile("")
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}
