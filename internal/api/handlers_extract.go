package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/doctext/internal/extract"
)

// handleExtract runs one extraction synchronously and returns the text.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	data, filename, pr, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	out, err := s.orchestrator.ExtractSync(r.Context(), data, filename, pr)
	if err != nil {
		if errors.Is(err, extract.ErrEmptyDocument) {
			jsonError(w, "empty document", http.StatusBadRequest)
			return
		}
		s.log.Error("extraction failed", "filename", filename, "error", err)
		jsonError(w, "extraction failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename": filename,
		"text":     out.Text,
		"source":   out.Source,
		"pages":    out.Pages,
	})
}

// readUpload parses the multipart form shared by the sync and async
// endpoints: a "file" part plus optional page_start/page_end fields.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, pr extract.PageRange, ok bool) {
	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", pr, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", pr, false
	}
	defer file.Close()

	data, err = readLimited(file, s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return nil, "", pr, false
	}

	pr, err = parsePageRange(r.FormValue("page_start"), r.FormValue("page_end"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, "", pr, false
	}

	return data, sanitizeFilename(header.Filename), pr, true
}

func readLimited(file multipart.File, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", max)
	}
	return data, nil
}

// parsePageRange reads the optional 1-indexed inclusive page bounds.
func parsePageRange(startVal, endVal string) (extract.PageRange, error) {
	var pr extract.PageRange
	if startVal != "" {
		n, err := strconv.Atoi(startVal)
		if err != nil || n < 0 {
			return pr, fmt.Errorf("invalid page_start: %s", startVal)
		}
		pr.Start = n
	}
	if endVal != "" {
		n, err := strconv.Atoi(endVal)
		if err != nil || n < 0 {
			return pr, fmt.Errorf("invalid page_end: %s", endVal)
		}
		pr.End = n
	}
	if pr.Start > 0 && pr.End > 0 && pr.Start > pr.End {
		return pr, fmt.Errorf("page_start (%d) must not exceed page_end (%d)", pr.Start, pr.End)
	}
	return pr, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
