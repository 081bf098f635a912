// Package extract turns résumé and job posting files into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"atsscore/internal/errors"
	"atsscore/internal/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Document is the text of a résumé file plus what an analysis request
// needs to know about the file itself.
type Document struct {
	Text     string
	FileType string
	SizeKB   float64
}

// FromFile reads path and extracts its text. The file type comes from the
// extension.
func FromFile(ctx context.Context, path string) (*Document, error) {
	if err := utils.ValidateInputFile(path); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "invalid input file", err).
			WithContext("file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot read file: %s", path), err)
	}

	fileType := utils.FileType(path)
	text, err := FromBytes(ctx, data, fileType)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr.WithContext("file", path)
		}
		return nil, err
	}

	return &Document{
		Text:     text,
		FileType: fileType,
		SizeKB:   utils.SizeInKB(int64(len(data))),
	}, nil
}

// FromBytes extracts text from an in-memory file of the given type
// (extension without the dot).
func FromBytes(ctx context.Context, data []byte, fileType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(fileType) {
	case "pdf":
		text, err = extractPDF(data)
	case "docx":
		text, err = extractDOCX(data)
	case "txt", "text", "md", "markdown":
		text = string(data)
	case "html", "htm":
		text, err = HTMLToText(string(data))
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("unsupported file type: %q", fileType), nil)
	}
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed,
			fmt.Sprintf("failed to extract text from %s", fileType), err)
	}
	return text, nil
}

// JobDescriptionFromFile reads a job posting. HTML files are reduced to
// their visible text; anything else is read as is.
func JobDescriptionFromFile(path string) (string, error) {
	if err := utils.ValidateInputFile(path); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotFound, "invalid job description file", err).
			WithContext("file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot read file: %s", path), err)
	}

	if !utils.IsHTMLFile(path) {
		return string(data), nil
	}
	text, err := HTMLToText(string(data))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed, "failed to parse job posting HTML", err).
			WithContext("file", path)
	}
	return text, nil
}

// HTMLToText returns the visible text of an HTML document, one non-empty
// line per block.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template, nav, footer").Remove()
	// block elements end a line
	doc.Find("br, p, div, li, h1, h2, h3, h4, h5, h6, tr, section, article").AfterHtml("\n")

	body := doc.Find("body")
	if body.Length() == 0 {
		return cleanLines(doc.Text()), nil
	}
	return cleanLines(body.Text()), nil
}

// pdfText is swapped in tests.
var pdfText = readPDFText

// extractPDF turns a panic inside the PDF reader into an error; malformed
// xref tables and content streams can panic.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()
	return pdfText(data)
}

func readPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return cleanLines(buf.String()), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", stderrors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer func() { _ = rc.Close() }()
		return docxText(rc)
	}
	return "", stderrors.New("word/document.xml not found in docx")
}

// docxText walks WordprocessingML keeping run text. Paragraphs and breaks
// end a line; tabs become a tab.
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteString("\t")
			case "br":
				buf.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return cleanLines(buf.String()), nil
}

// cleanLines trims every line and drops the empty ones.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
