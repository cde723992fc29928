// Package sink persists produced documents to their planned destinations.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sink opens a writer for a destination path. The document is committed
// when the writer is closed.
type Sink interface {
	Create(ctx context.Context, path string) (io.WriteCloser, error)
}

// WriteError reports a destination that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Local writes to the local filesystem, creating parent directories.
// An existing file at the same path is truncated and overwritten.
type Local struct{}

func (Local) Create(_ context.Context, path string) (io.WriteCloser, error) {
	if scheme, ok := urlScheme(path); ok && scheme != "file" {
		return nil, &WriteError{Path: path, Err: fmt.Errorf("cannot write to %s:// destinations", scheme)}
	}
	path = strings.TrimPrefix(path, "file://")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	return &fileWriter{f: f, path: path}, nil
}

type fileWriter struct {
	f    *os.File
	path string
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, &WriteError{Path: w.path, Err: err}
	}
	return n, nil
}

func (w *fileWriter) Close() error {
	if err := w.f.Close(); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	return nil
}

// Uploader stores a complete object at a URL.
type Uploader interface {
	Upload(ctx context.Context, url string, body io.Reader, contentType string) error
}

// Remote buffers each document in memory and uploads it on Close.
type Remote struct {
	Uploader    Uploader
	ContentType string
}

func (r Remote) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	if r.Uploader == nil {
		return nil, &WriteError{Path: path, Err: errors.New("remote storage is not configured")}
	}
	ct := r.ContentType
	if ct == "" {
		ct = "application/pdf"
	}
	return &remoteWriter{ctx: ctx, up: r.Uploader, path: path, contentType: ct}, nil
}

type remoteWriter struct {
	ctx         context.Context
	up          Uploader
	path        string
	contentType string
	buf         bytes.Buffer
}

func (w *remoteWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *remoteWriter) Close() error {
	if err := w.up.Upload(w.ctx, w.path, bytes.NewReader(w.buf.Bytes()), w.contentType); err != nil {
		return &WriteError{Path: w.path, Err: err}
	}
	return nil
}

// Router sends s3:// destinations to S3 and plain or file:// paths to Local.
// Any other scheme is refused.
type Router struct {
	Local Sink
	S3    Sink
}

func (r Router) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	switch scheme, _ := urlScheme(path); scheme {
	case "s3":
		if r.S3 == nil {
			return nil, &WriteError{Path: path, Err: errors.New("s3 output is not configured")}
		}
		return r.S3.Create(ctx, path)
	case "", "file":
	default:
		return nil, &WriteError{Path: path, Err: fmt.Errorf("cannot write to %s:// destinations", scheme)}
	}
	if r.Local == nil {
		return Local{}.Create(ctx, path)
	}
	return r.Local.Create(ctx, path)
}

// urlScheme returns the lowercased scheme of a scheme://rest reference.
func urlScheme(path string) (string, bool) {
	scheme, _, ok := strings.Cut(path, "://")
	if !ok || scheme == "" || strings.ContainsAny(scheme, `/\`) {
		return "", false
	}
	return strings.ToLower(scheme), true
}
