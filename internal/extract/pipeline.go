package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Source records which phase produced an extraction result.
type Source string

const (
	SourceDirect Source = "direct"
	SourceOCR    Source = "ocr"
)

// ErrEmptyDocument is returned for zero-length input.
var ErrEmptyDocument = errors.New("empty document")

// OCRClient is the external vision-OCR capability. It is called once per
// page image, independently, with no cross-page context.
type OCRClient interface {
	DetectDocumentText(ctx context.Context, image []byte) (string, error)
}

// Renderer is the external PDF rasterization capability.
type Renderer interface {
	Render(ctx context.Context, pdf []byte, pr PageRange) ([]Page, error)
}

// textExtractor is the embedded-text capability; satisfied by
// DirectExtractor.
type textExtractor interface {
	Extract(data []byte, pr PageRange) (text string, pages int, err error)
}

// Outcome is the pipeline's final return value. Exactly one source phase is
// recorded per successful extraction.
type Outcome struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
	Pages  int    `json:"pages"`
}

// PageResult is one page's OCR contribution, produced once per rendered
// page and never mutated afterwards.
type PageResult struct {
	Page int
	Text string
	Err  error
}

// Pipeline implements the hybrid extraction strategy: free direct text
// extraction first, image-based OCR only when the direct text fails the
// quality classifier. All dependencies are injected so tests can substitute
// fake OCR and rendering capabilities.
type Pipeline struct {
	direct   textExtractor
	renderer Renderer
	ocr      OCRClient
	quality  QualityConfig
	workers  int
	log      *slog.Logger
}

func NewPipeline(ocr OCRClient, renderer Renderer, quality QualityConfig, workers int, log *slog.Logger) *Pipeline {
	if workers <= 0 {
		workers = 3
	}
	return &Pipeline{
		direct:   NewDirectExtractor(log),
		renderer: renderer,
		ocr:      ocr,
		quality:  quality,
		workers:  workers,
		log:      log,
	}
}

// ExtractText converts a document (PDF or image) into plain text. The page
// range applies to PDFs only. Failures surface as an explicit error with an
// empty-text outcome; the pipeline never panics.
func (p *Pipeline) ExtractText(ctx context.Context, data []byte, pr PageRange) (Outcome, error) {
	if len(data) == 0 {
		return Outcome{}, ErrEmptyDocument
	}

	if DetectKind(data) == KindPDF {
		return p.extractPDF(ctx, data, pr)
	}

	// Image path: a single OCR call, no direct phase, no classification.
	text, err := p.ocr.DetectDocumentText(ctx, data)
	if err != nil {
		return Outcome{Source: SourceOCR}, fmt.Errorf("image ocr: %w", err)
	}
	return Outcome{Text: text, Source: SourceOCR, Pages: 1}, nil
}

// extractPDF runs the two-phase strategy: one direct attempt, one OCR
// fallback, no retry loop across phases.
func (p *Pipeline) extractPDF(ctx context.Context, data []byte, pr PageRange) (Outcome, error) {
	text, textPages, err := p.direct.Extract(data, pr)
	if err != nil {
		p.log.Warn("direct extraction failed, falling back to ocr", "error", err)
	}

	verdict := Classify(text, p.quality)
	if err == nil && verdict.OK {
		p.log.Info("direct extraction accepted",
			"chars", len(text),
			"cid_ratio", verdict.CIDRatio,
			"control_ratio", verdict.ControlRatio,
		)
		return Outcome{Text: text, Source: SourceDirect, Pages: textPages}, nil
	}
	p.log.Info("direct extraction rejected", "reason", verdict.Reason, "chars", len(text))

	pages, err := p.renderer.Render(ctx, data, pr)
	if err != nil {
		return Outcome{Source: SourceOCR}, fmt.Errorf("render pages: %w", err)
	}
	if len(pages) == 0 {
		return Outcome{Source: SourceOCR}, nil
	}

	merged := p.ocrPages(ctx, pages)
	return Outcome{Text: merged, Source: SourceOCR, Pages: len(pages)}, nil
}

// ocrPages fans one OCR task per page out to a bounded worker pool and
// merges the results in ascending page order. A failed page degrades to an
// empty contribution; it never aborts its siblings.
func (p *Pipeline) ocrPages(ctx context.Context, pages []Page) string {
	results := make(chan PageResult, len(pages))
	sem := make(chan struct{}, p.workers)

	for _, pg := range pages {
		sem <- struct{}{}
		go func(pg Page) {
			defer func() { <-sem }()
			text, err := p.ocr.DetectDocumentText(ctx, pg.PNG)
			results <- PageResult{Page: pg.Number, Text: text, Err: err}
		}(pg)
	}

	collected := make([]PageResult, 0, len(pages))
	for range pages {
		r := <-results
		if r.Err != nil {
			p.log.Error("page ocr failed", "page", r.Page, "error", r.Err)
			continue
		}
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		collected = append(collected, r)
	}

	// Completion order is non-deterministic; output order is not.
	sort.Slice(collected, func(i, j int) bool { return collected[i].Page < collected[j].Page })

	parts := make([]string, 0, len(collected))
	for _, r := range collected {
		parts = append(parts, pageBlock(r.Page, r.Text))
	}
	return strings.Join(parts, "\n")
}
