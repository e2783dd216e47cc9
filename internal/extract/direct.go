package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// DirectExtractor pulls embedded text out of a PDF without rasterizing it.
// This is the free fast path: it never touches the OCR capability.
type DirectExtractor struct {
	log *slog.Logger
}

func NewDirectExtractor(log *slog.Logger) *DirectExtractor {
	return &DirectExtractor{log: log}
}

// Extract returns the embedded text of the pages in pr, each non-empty page
// prefixed with its page marker, concatenated in ascending page order, plus
// the count of pages that contributed text. A page that fails to decode is
// skipped rather than aborting the document. Returns "" when the range is
// empty or no text is embedded.
func (d *DirectExtractor) Extract(data []byte, pr PageRange) (text string, pages int, err error) {
	// ledongthuc/pdf panics on some malformed documents; the pipeline
	// contract is that a broken PDF degrades to the OCR phase instead.
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("direct extraction panic: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	first, last, ok := pr.Clamp(reader.NumPage())
	if !ok {
		return "", 0, nil
	}

	var parts []string
	for n := first; n <= last; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			d.log.Warn("direct extraction page failed", "page", n, "error", perr)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		parts = append(parts, pageBlock(n, pageText))
	}
	return strings.Join(parts, "\n"), len(parts), nil
}

// pageBlock formats one page's text with the marker convention shared by
// the direct and OCR paths.
func pageBlock(page int, text string) string {
	return fmt.Sprintf("--- Page %d ---\n%s\n", page, text)
}
