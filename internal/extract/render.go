package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Page is one rasterized PDF page ready for OCR upload.
type Page struct {
	Number int
	PNG    []byte
}

// PopplerRenderer rasterizes PDF page ranges to PNG via poppler's pdftoppm.
// Only the requested sub-range is rendered to bound memory and latency on
// large documents.
type PopplerRenderer struct {
	DPI  int
	Path string // pdftoppm binary; resolved from PATH when empty
}

func NewPopplerRenderer(dpi int) *PopplerRenderer {
	path, _ := exec.LookPath("pdftoppm")
	if path == "" {
		path = "pdftoppm"
	}
	return &PopplerRenderer{DPI: dpi, Path: path}
}

// PageCount returns the number of pages in the PDF.
func (r *PopplerRenderer) PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// Render rasterizes the pages selected by pr in ascending page order.
// It fails as a whole when the PDF cannot be opened or converted; there are
// no partial results and no retry.
func (r *PopplerRenderer) Render(ctx context.Context, data []byte, pr PageRange) ([]Page, error) {
	total, err := r.PageCount(data)
	if err != nil {
		return nil, err
	}
	first, last, ok := pr.Clamp(total)
	if !ok {
		return nil, nil
	}

	tmpDir, err := os.MkdirTemp("", "doctext-render-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf temp file: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, r.Path,
		"-png",
		"-r", strconv.Itoa(r.DPI),
		"-f", strconv.Itoa(first),
		"-l", strconv.Itoa(last),
		pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, string(out))
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("read temp dir: %w", err)
	}

	var pages []Page
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".png") {
			continue
		}
		num, ok := pageNumberFromName(name)
		if !ok {
			continue
		}
		png, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			return nil, fmt.Errorf("read rendered page %d: %w", num, err)
		}
		pages = append(pages, Page{Number: num, PNG: png})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// pageNumberFromName parses the page number pdftoppm embeds in output
// filenames ("page-07.png" -> 7).
func pageNumberFromName(name string) (int, bool) {
	base := strings.TrimSuffix(name, ".png")
	idx := strings.LastIndexByte(base, '-')
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
