package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/local/pdfcutter/internal/codec"
	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/pdftest"
	"github.com/local/pdfcutter/internal/sink"
	"github.com/local/pdfcutter/internal/source"
	"github.com/local/pdfcutter/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestServer(t *testing.T, cfg Config, guard *orchestrator.Guard) (*gin.Engine, store.Store) {
	t.Helper()
	st := store.NewMemory(0)
	s := New(Dependencies{
		Codec:  codec.NewPDFCPU(),
		Guard:  guard,
		Store:  st,
		Config: cfg,
	})
	return s.Router(), st
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func upload(r http.Handler, name string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("pdf", name)
	fw.Write(content)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type statusResponse struct {
	JobID  string       `json:"job_id"`
	Status store.Status `json:"status"`
}

func waitForJob(t *testing.T, r http.Handler, id string) store.Status {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		w := doJSON(r, http.MethodGet, "/api/cut/"+id, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp statusResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status.State == "completed" || resp.Status.State == "failed" {
			return resp.Status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Job %s did not finish", id)
	return store.Status{}
}

func startCut(t *testing.T, r http.Handler, body cutRequest) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/cut", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["job_id"] == "" {
		t.Fatal("Expected a job id")
	}
	return resp["job_id"]
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t, Config{}, nil)
	w := doJSON(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", resp["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestServer(t, Config{}, nil)
	w := doJSON(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	r, _ := newTestServer(t, Config{UploadDir: dir, MaxFileSize: 1 << 20}, nil)

	w := upload(r, "../../report.pdf", pdftest.Build(3))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if filepath.Dir(resp["path"]) != dir || !strings.HasSuffix(resp["path"], "_report.pdf") {
		t.Errorf("Unexpected saved path %q", resp["path"])
	}
	if b, err := os.ReadFile(resp["path"]); err != nil || !bytes.Equal(b, pdftest.Build(3)) {
		t.Errorf("Saved file does not match upload: %v", err)
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name    string
		limit   int64
		content []byte
		code    int
	}{
		{"not a pdf", 1 << 20, []byte("plain text pretending"), http.StatusBadRequest},
		{"too large", 64, pdftest.Build(3), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			r, _ := newTestServer(t, Config{UploadDir: dir, MaxFileSize: tt.limit}, nil)
			if w := upload(r, "doc.pdf", tt.content); w.Code != tt.code {
				t.Errorf("Expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if entries, _ := os.ReadDir(dir); len(entries) != 0 {
				t.Errorf("Expected nothing saved, got %d files", len(entries))
			}
		})
	}
}

func TestCutJob(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.WriteFile(t, dir, "doc.pdf", 10)
	out := filepath.Join(dir, "out")
	r, _ := newTestServer(t, Config{UploadDir: dir, OutputDir: dir}, nil)

	id := startCut(t, r, cutRequest{Source: src, Mode: "range", Fields: []string{"3", "7"}, OutputDir: "out"})
	st := waitForJob(t, r, id)

	if st.State != "completed" {
		t.Fatalf("Expected completed, got %+v", st)
	}
	if !reflect.DeepEqual(st.Files, []string{filepath.Join(out, "doc_3-7.pdf")}) {
		t.Errorf("Unexpected files %v", st.Files)
	}
	if st.Notice != "info" || st.Message != orchestrator.MsgCompleted {
		t.Errorf("Unexpected notice %q %q", st.Notice, st.Message)
	}
	if st.Progress != orchestrator.StatusReady || st.End == nil {
		t.Errorf("Unexpected progress %q end %v", st.Progress, st.End)
	}
}

func TestCutJobFailure(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.WriteFile(t, dir, "doc.pdf", 10)
	r, _ := newTestServer(t, Config{UploadDir: dir, OutputDir: dir}, nil)

	id := startCut(t, r, cutRequest{Source: src, Mode: "range", Fields: []string{"1", "15"}})
	st := waitForJob(t, r, id)

	if st.State != "failed" || st.Notice != "error" || st.Message != "Page 15 not exist" {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestCutBadRequests(t *testing.T) {
	uploads := t.TempDir()
	outputs := t.TempDir()
	elsewhere := pdftest.WriteFile(t, t.TempDir(), "doc.pdf", 3)
	r, _ := newTestServer(t, Config{UploadDir: uploads, OutputDir: outputs}, nil)

	tests := []struct {
		name string
		body any
	}{
		{"missing source", map[string]any{"mode": "each"}},
		{"unknown mode", cutRequest{Source: "doc.pdf", Mode: "odd"}},
		{"source climbs out", cutRequest{Source: "../doc.pdf", Mode: "each"}},
		{"absolute source elsewhere", cutRequest{Source: elsewhere, Mode: "each"}},
		{"file url elsewhere", cutRequest{Source: "file://" + elsewhere, Mode: "each"}},
		{"http source disabled", cutRequest{Source: "http://169.254.169.254/latest/doc.pdf", Mode: "each"}},
		{"unsupported source scheme", cutRequest{Source: "ftp://host/doc.pdf", Mode: "each"}},
		{"output climbs out", cutRequest{Source: "doc.pdf", Mode: "each", OutputDir: "../escape"}},
		{"absolute output elsewhere", cutRequest{Source: "doc.pdf", Mode: "each", OutputDir: filepath.Dir(elsewhere)}},
		{"http output", cutRequest{Source: "doc.pdf", Mode: "each", OutputDir: "http://host/dir"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doJSON(r, http.MethodPost, "/api/cut", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
	if entries, _ := os.ReadDir(filepath.Dir(elsewhere)); len(entries) != 1 {
		t.Errorf("Expected nothing written next to %s, got %d entries", elsewhere, len(entries))
	}
}

func TestCutLocalOutputNeedsRoot(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.WriteFile(t, dir, "doc.pdf", 3)
	r, _ := newTestServer(t, Config{UploadDir: dir}, nil)

	w := doJSON(r, http.MethodPost, "/api/cut", cutRequest{Source: src, Mode: "each", OutputDir: "out"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// Without an output root the pages land next to the upload.
	id := startCut(t, r, cutRequest{Source: src, Mode: "multiple", Fields: []string{"2"}})
	st := waitForJob(t, r, id)
	if !reflect.DeepEqual(st.Files, []string{filepath.Join(dir, "doc_2.pdf")}) {
		t.Errorf("Unexpected files %v", st.Files)
	}
}

func TestCutHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdftest.Build(3))
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		root   string
		output string
		state  string
	}{
		{"under output root", t.TempDir(), "out", "completed"},
		{"no output directory", "", "", "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwd := t.TempDir()
			t.Chdir(cwd)
			s := New(Dependencies{
				Codec:   codec.NewPDFCPU(),
				Sink:    sink.Router{},
				Fetcher: &source.Fetcher{HTTP: srv.Client(), TempDir: t.TempDir()},
				Config:  Config{UploadDir: t.TempDir(), OutputDir: tt.root, AllowHTTPSources: true},
			})
			r := s.Router()

			id := startCut(t, r, cutRequest{Source: srv.URL + "/docs/doc.pdf", Mode: "multiple", Fields: []string{"1"}, OutputDir: tt.output})
			st := waitForJob(t, r, id)
			if st.State != tt.state {
				t.Fatalf("Expected %s, got %+v", tt.state, st)
			}
			if tt.state == "completed" {
				want := filepath.Join(tt.root, "out", "doc_1.pdf")
				if !reflect.DeepEqual(st.Files, []string{want}) {
					t.Errorf("Expected %s, got %v", want, st.Files)
				}
			}
			if entries, _ := os.ReadDir(cwd); len(entries) != 0 {
				t.Errorf("Expected nothing written under the working directory, got %d entries", len(entries))
			}
		})
	}
}

func TestCutBusy(t *testing.T) {
	guard := orchestrator.NewGuard()
	release, _ := guard.Allow()
	defer release()
	r, st := newTestServer(t, Config{}, guard)

	w := doJSON(r, http.MethodPost, "/api/cut", cutRequest{Source: "doc.pdf", Mode: "each"})
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if _, ok, _ := st.Get(t.Context(), resp["job_id"]); ok {
		t.Errorf("Expected no job recorded for a rejected cut")
	}
}

func TestStatusNotFound(t *testing.T) {
	r, _ := newTestServer(t, Config{}, nil)
	if w := doJSON(r, http.MethodGet, "/api/cut/unknown", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":       "report.pdf",
		"../../etc/passwd": "__etc_passwd",
		`..\x.pdf`:         "_x.pdf",
		"  ":               "document.pdf",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, expected %q", in, got, want)
		}
	}
}
