// Package pdfcheck sanity-checks PDF claim documents before they are
// forwarded upstream, so the insurer never receives a corrupt or empty file.
package pdfcheck

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyPDF is returned for structurally valid PDFs with no pages.
var ErrEmptyPDF = errors.New("pdf has no pages")

// Verify confirms the bytes parse as a PDF with at least one page and
// returns the page count.
func Verify(data []byte) (int, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	pages := doc.NumPage()
	if pages < 1 {
		return 0, ErrEmptyPDF
	}
	return pages, nil
}
