// Package source makes source PDF references available as local files.
//
// Supported references:
// - plain filesystem paths and file://path
// - http(s):// URLs (downloaded to a temp file)
// - s3://bucket/key (downloaded to a temp file)
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const tempPattern = "pdfcutter-src-*.pdf"

// Downloader copies a remote object into w.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Fetcher resolves references to local files.
type Fetcher struct {
	S3      Downloader
	HTTP    *http.Client
	TempDir string
}

// Fetch returns a local path for ref and a cleanup func that removes any
// temp file it created. cleanup is never nil.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	switch {
	case strings.HasPrefix(ref, "s3://"):
		if f.S3 == nil {
			return "", noop, errors.New("s3 sources are not configured")
		}
		return f.toTemp(ctx, ref, func(w io.Writer) error {
			_, err := f.S3.Download(ctx, ref, w)
			return err
		})
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return f.toTemp(ctx, ref, func(w io.Writer) error { return f.downloadHTTP(ctx, ref, w) })
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), noop, nil
	default:
		return ref, noop, nil
	}
}

func (f *Fetcher) toTemp(_ context.Context, ref string, fill func(io.Writer) error) (string, func(), error) {
	tmp, err := os.CreateTemp(f.TempDir, tempPattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	if err := fill(tmp); err != nil {
		tmp.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("download %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	log.Info().Str("ref", ref).Str("file", filepath.Base(tmp.Name())).Msg("downloaded source pdf to temp")
	return tmp.Name(), cleanup, nil
}

func (f *Fetcher) downloadHTTP(ctx context.Context, url string, w io.Writer) error {
	cli := f.HTTP
	if cli == nil {
		cli = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// CleanupTemps removes downloaded sources in dir older than maxAge, left
// behind by processes that exited without closing their documents.
func CleanupTemps(dir string, maxAge time.Duration) int {
	if dir == "" {
		dir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(dir, tempPattern))
	if err != nil {
		return 0
	}
	now := time.Now()
	removed := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if now.Sub(info.ModTime()) >= maxAge && os.Remove(m) == nil {
			removed++
		}
	}
	return removed
}
