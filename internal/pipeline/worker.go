package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/parser"
)

// Worker runs a single document extraction: route by document kind, then
// either a direct format parser or the hybrid OCR pipeline.
type Worker struct {
	extractor *extract.Pipeline
	log       *slog.Logger
}

func NewWorker(extractor *extract.Pipeline, log *slog.Logger) *Worker {
	return &Worker{extractor: extractor, log: log}
}

// ExtractDocument routes a document to the right extraction path. Formats
// with embedded text (DOCX, and anything with a direct parser for its
// extension) bypass the OCR pipeline entirely; PDFs and images go through
// the hybrid path. Retryable vision errors are retried here with backoff —
// the pipeline itself makes a single attempt per phase.
func (w *Worker) ExtractDocument(ctx context.Context, data []byte, filename string, pr extract.PageRange) (extract.Outcome, error) {
	kind := extract.DetectKind(data)

	switch {
	case kind == extract.KindDOCX:
		return parseDirect(&parser.DOCXParser{}, data, filename)
	case kind != extract.KindPDF && parser.IsSupportedExtension(filename):
		p, err := parser.ForFile(filename)
		if err != nil {
			return extract.Outcome{}, err
		}
		return parseDirect(p, data, filename)
	}

	var out extract.Outcome
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		out, lastErr = w.extractor.ExtractText(ctx, data, pr)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable extraction error", "filename", filename, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return extract.Outcome{}, ctx.Err()
		}
	}
	return out, lastErr
}

// Process runs the extraction for an async job and records the result.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusExtracting)
	pr := extract.PageRange{Start: job.PageStart, End: job.PageEnd}

	out, err := w.ExtractDocument(ctx, job.FileData(), job.Filename, pr)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed)
		return
	}

	job.SetResult(out)
	job.SetStatus(StatusCompleted)
	log.Info("extraction complete", "source", out.Source, "pages", out.Pages, "chars", len(out.Text))
}

func parseDirect(p parser.Parser, data []byte, filename string) (extract.Outcome, error) {
	text, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return extract.Outcome{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	return extract.Outcome{Text: text, Source: extract.SourceDirect}, nil
}
