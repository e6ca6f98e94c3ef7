// Package textsource is the text extraction collaborator. Binary formats
// (PDF, DOCX) are converted by external tooling; this package consumes the
// resulting plain text and attributes page numbers for traceability.
package textsource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

// charsPerPage approximates page boundaries when the text carries no
// form-feed separators.
const charsPerPage = 3000

// Page is one page of extracted document text.
type Page struct {
	Number int
	Text   string
}

// Source extracts page-numbered plain text from a stored document file.
type Source interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}

// PlainText reads UTF-8 text files. Pages are split on form feeds when
// present, otherwise estimated by character count.
type PlainText struct{}

// NewPlainText creates the plain-text source.
func NewPlainText() PlainText { return PlainText{} }

func (p PlainText) Extract(ctx context.Context, path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: source file %s", document.ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Paginate(string(data)), nil
}

// Paginate splits raw text into pages: on form feeds when present,
// otherwise in fixed-size chunks.
func Paginate(text string) []Page {
	var chunks []string
	if strings.Contains(text, "\f") {
		chunks = strings.Split(text, "\f")
	} else {
		for i := 0; i < len(text); i += charsPerPage {
			end := i + charsPerPage
			if end > len(text) {
				end = len(text)
			}
			chunks = append(chunks, text[i:end])
		}
	}

	pages := make([]Page, 0, len(chunks))
	for i, chunk := range chunks {
		pages = append(pages, Page{Number: i + 1, Text: chunk})
	}
	return pages
}

// Join concatenates pages back into one text blob for whole-document
// analysis.
func Join(pages []Page) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

var _ Source = PlainText{}
