package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/doctext/internal/config"
	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/pipeline"
	"github.com/dgallion1/doctext/internal/vision"
)

const testAPIKey = "test-key"

type stubOCR struct{}

func (stubOCR) DetectDocumentText(context.Context, []byte) (string, error) {
	return "ocr text", nil
}

type stubRenderer struct{}

func (stubRenderer) Render(context.Context, []byte, extract.PageRange) ([]extract.Page, error) {
	return []extract.Page{{Number: 1, PNG: []byte("png")}}, nil
}

func testServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Port:           "0",
		DoctextAPIKey:  testAPIKey,
		VisionAPIKey:   "vision-key",
		OCRWorkers:     2,
		WorkerCount:    1,
		MaxQueueSize:   4,
		JobTTL:         time.Hour,
		MaxUploadBytes: 1 << 20,
	}

	extractor := extract.NewPipeline(stubOCR{}, stubRenderer{}, extract.DefaultQualityConfig(), cfg.OCRWorkers, log)
	orch := pipeline.NewOrchestrator(cfg, extractor, log)

	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)
	t.Cleanup(func() {
		cancel()
		orch.Stop()
	})

	visionClient := vision.NewClient("http://localhost:0", "vision-key", time.Second)
	return NewServer(orch, visionClient, log, cfg), orch
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func authedRequest(method, target, contentType string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestHealth_NoAuthRequired(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_RejectsMissingAndWrongKey(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("POST", "/api/extract", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing auth: expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/extract", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rec.Code)
	}
}

func TestExtract_SyncTextFile(t *testing.T) {
	srv, _ := testServer(t)

	body, contentType := multipartUpload(t, "notes.txt", []byte("plain file contents"), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/extract", contentType, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Text   string `json:"text"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Source != "direct" {
		t.Errorf("expected direct source, got %q", resp.Source)
	}
	if resp.Text == "" {
		t.Error("expected non-empty text")
	}
}

func TestExtract_EmptyFileRejected(t *testing.T) {
	srv, _ := testServer(t)

	body, contentType := multipartUpload(t, "empty.pdf", nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/extract", contentType, body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExtract_InvalidPageRange(t *testing.T) {
	srv, _ := testServer(t)

	body, contentType := multipartUpload(t, "doc.pdf", []byte("%PDF-1.4"), map[string]string{
		"page_start": "5",
		"page_end":   "2",
	})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/extract", contentType, body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJobs_SubmitPollFetchText(t *testing.T) {
	srv, orch := testServer(t)

	body, contentType := multipartUpload(t, "report.txt", []byte("async job contents"), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/jobs", contentType, body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if submitted.JobID == "" || submitted.PollURL == "" {
		t.Fatalf("incomplete submit response: %+v", submitted)
	}

	// Wait for the worker to finish.
	deadline := time.Now().Add(2 * time.Second)
	for {
		job := orch.GetJob(submitted.JobID)
		if job == nil {
			t.Fatal("job vanished from store")
		}
		status := job.Snapshot().Status
		if status == pipeline.StatusCompleted {
			break
		}
		if status == pipeline.StatusFailed {
			t.Fatalf("job failed: %v", job.Snapshot().Errors)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("GET", submitted.PollURL, "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status poll: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("GET", submitted.PollURL+"/text", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("text fetch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var textResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &textResp); err != nil {
		t.Fatalf("decode text response: %v", err)
	}
	if textResp.Text == "" {
		t.Error("expected extracted text")
	}
}

func TestJobs_UnknownJobIs404(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("GET", "/api/jobs/01ARZ3NDEKTSV4RRFFQ69G5FAV", "", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestJobs_TextUnavailableUntilCompleted(t *testing.T) {
	srv, orch := testServer(t)

	// An empty upload fails extraction; its text must stay unavailable.
	body, contentType := multipartUpload(t, "empty.bin", []byte{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("POST", "/api/jobs", contentType, body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for orch.GetJob(submitted.JobID).Snapshot().Status != pipeline.StatusFailed {
		if time.Now().After(deadline) {
			t.Fatal("job never failed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("GET", "/api/jobs/"+submitted.JobID+"/text", "", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestVisionStats(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authedRequest("GET", "/api/stats/vision", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp["vision"]; !ok {
		t.Error("missing vision stats")
	}
}
