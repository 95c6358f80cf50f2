// Package document extracts plain text from uploaded contract files.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrMalformedDocument indicates the file could not be read as its declared type.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrUnsupportedType indicates a file type with no text extractor.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrNoText indicates a readable document that yielded no text, such as a scanned PDF.
	ErrNoText = errors.New("document contains no extractable text")
)

var pdfMagic = []byte("%PDF-")

// Text is the extracted content of a document.
type Text struct {
	Name  string `json:"name"`
	Pages int    `json:"pages,omitempty"`
	Body  string `json:"-"`
}

// Extract returns the text of the named file. PDFs are recognized by
// extension or content signature; .txt and .md files pass through as UTF-8.
func Extract(ctx context.Context, name string, data []byte) (*Text, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case ext == ".pdf" || bytes.HasPrefix(data, pdfMagic):
		return extractPDF(name, data)
	case ext == ".txt" || ext == ".md" || ext == ".markdown":
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrMalformedDocument, name)
		}
		return &Text{Name: name, Body: string(data)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

func extractPDF(name string, data []byte) (*Text, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedDocument, name, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedDocument, name, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", ErrMalformedDocument, name, i, err)
		}
		pages = append(pages, text)
	}

	body := strings.Join(pages, "\n")
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoText, name)
	}

	return &Text{Name: name, Pages: count, Body: body}, nil
}
