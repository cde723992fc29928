package sink

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalCreatesDirectoriesAndOverwrites(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "doc_2.pdf")
	for _, body := range []string{"first", "second"} {
		w, err := Local{}.Create(context.Background(), p)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "second" {
		t.Errorf("Expected last write to win, got %q", b)
	}
}

func TestLocalUnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Local{}.Create(context.Background(), filepath.Join(blocker, "doc_1.pdf"))
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("Expected WriteError, got %v", err)
	}
}

type recordingUploader struct {
	url, contentType, body string
	err                    error
}

func (u *recordingUploader) Upload(_ context.Context, url string, body io.Reader, contentType string) error {
	b, _ := io.ReadAll(body)
	u.url, u.contentType, u.body = url, contentType, string(b)
	return u.err
}

func TestRouterSendsS3ToRemote(t *testing.T) {
	up := &recordingUploader{}
	r := Router{S3: Remote{Uploader: up}}

	w, err := r.Create(context.Background(), "s3://bucket/out/doc_1.pdf")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	io.WriteString(w, "%PDF-1.4")
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if up.url != "s3://bucket/out/doc_1.pdf" || up.contentType != "application/pdf" || up.body != "%PDF-1.4" {
		t.Errorf("Unexpected upload: %+v", up)
	}
}

func TestRemoteUploadFailure(t *testing.T) {
	up := &recordingUploader{err: errors.New("denied")}
	w, _ := Remote{Uploader: up}.Create(context.Background(), "s3://bucket/doc_1.pdf")
	var we *WriteError
	if err := w.Close(); !errors.As(err, &we) {
		t.Fatalf("Expected WriteError, got %v", err)
	}
}

func TestRouterWithoutS3(t *testing.T) {
	_, err := Router{}.Create(context.Background(), "s3://bucket/doc_1.pdf")
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("Expected WriteError, got %v", err)
	}
}

func TestRouterRefusesUnservedSchemes(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	for _, dest := range []string{
		"http://example.com/docs/doc_1.pdf",
		"https://example.com/docs/doc_1.pdf",
		"ftp://host/doc_1.pdf",
	} {
		t.Run(dest, func(t *testing.T) {
			_, err := Router{Local: Local{}}.Create(context.Background(), dest)
			var we *WriteError
			if !errors.As(err, &we) {
				t.Fatalf("Expected WriteError, got %v", err)
			}
			if _, err := (Local{}).Create(context.Background(), dest); !errors.As(err, &we) {
				t.Errorf("Expected Local to refuse %s, got %v", dest, err)
			}
		})
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("Expected nothing created, got %d entries", len(entries))
	}
}

func TestRouterFileScheme(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc_1.pdf")
	w, err := Router{}.Create(context.Background(), "file://"+p)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Close()
	if _, err := os.Stat(p); err != nil {
		t.Error(err)
	}
}
