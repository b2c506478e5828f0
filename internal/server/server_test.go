package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/easytextract/easytextract/internal/extract"
	"github.com/easytextract/easytextract/internal/storage/localfs"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (extract.Result, error) {
	if f.err != nil {
		return extract.Result{}, f.err
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext != "pdf" && ext != "txt" {
		return extract.Result{}, fmt.Errorf("%w: %q", extract.ErrUnsupported, ext)
	}
	return extract.Result{Text: f.text, Pages: 1, Format: "PDF", Method: "pdf-text"}, nil
}

func newTestServer(t *testing.T, ex extract.TextExtractor) *Server {
	t.Helper()
	staging, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(Options{}, ex, nil, nil, staging, nil)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestExtractByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, &fakeExtractor{text: "extracted text"})
	body, _ := json.Marshal(map[string]string{"path": path})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp extractResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Text != "extracted text" || resp.Method != "pdf-text" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestExtractUpload(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{text: "uploaded text"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("%PDF")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "uploaded text") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.zip")
	if err := os.WriteFile(path, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, &fakeExtractor{})
	body, _ := json.Marshal(map[string]string{"path": path})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

func TestExtractMissingPath(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	body, _ := json.Marshal(map[string]string{"path": "/does/not/exist.pdf"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestJobsWithoutDatabase(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, &fakeExtractor{text: "x"})
	router := srv.Router()

	body, _ := json.Marshal(map[string]string{"path": path})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("extract status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "easytextract_extract_jobs_total") {
		t.Error("metrics output missing job counter")
	}
}

func TestNewDefaultsTimeouts(t *testing.T) {
	srv := New(Options{}, &fakeExtractor{}, nil, nil, nil, nil)
	if srv.opts.ReadTimeout <= 0 || srv.opts.WriteTimeout <= 0 || srv.opts.IdleTimeout <= 0 {
		t.Errorf("opts = %+v, want non-zero connection timeouts", srv.opts)
	}

	srv = New(Options{ReadTimeout: time.Second}, &fakeExtractor{}, nil, nil, nil, nil)
	if srv.opts.ReadTimeout != time.Second {
		t.Errorf("read timeout = %v, want the configured value", srv.opts.ReadTimeout)
	}
}
