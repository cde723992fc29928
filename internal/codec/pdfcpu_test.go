package codec

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/local/pdfcutter/internal/pdftest"
)

func TestOpenReportsPageCount(t *testing.T) {
	src := pdftest.WriteFile(t, t.TempDir(), "doc.pdf", 10)

	doc, err := NewPDFCPU().Open(src)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer doc.Close()

	if doc.PageCount() != 10 {
		t.Errorf("Expected 10 pages, got %d", doc.PageCount())
	}
	if doc.Path() != src {
		t.Errorf("Expected path %s, got %s", src, doc.Path())
	}
}

func TestOpenRejectsUnreadable(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.pdf")
	if err := os.WriteFile(txt, []byte("just some text, not a pdf\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.pdf")},
		{name: "text with pdf extension", path: txt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPDFCPU().Open(tt.path)
			var ue *UnreadableDocumentError
			if !errors.As(err, &ue) {
				t.Fatalf("Expected UnreadableDocumentError, got %v", err)
			}
			if ue.Path != tt.path {
				t.Errorf("Expected path %s, got %s", tt.path, ue.Path)
			}
		})
	}
}

func TestPageIndexBounds(t *testing.T) {
	doc, err := NewPDFCPU().Open(pdftest.WriteFile(t, t.TempDir(), "doc.pdf", 3))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer doc.Close()

	for _, idx := range []int{-1, 3, 14} {
		_, err := doc.Page(idx)
		var ie *IndexError
		if !errors.As(err, &ie) {
			t.Errorf("Expected IndexError for %d, got %v", idx, err)
			continue
		}
		if ie.Index != idx || ie.Count != 3 {
			t.Errorf("Expected index %d of 3, got %d of %d", idx, ie.Index, ie.Count)
		}
	}

	p, err := doc.Page(2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Number() != 3 {
		t.Errorf("Expected page number 3, got %d", p.Number())
	}
}

func TestWriteDocumentKeepsPageOrder(t *testing.T) {
	dir := t.TempDir()
	c := NewPDFCPU()
	doc, err := c.Open(pdftest.WriteFile(t, dir, "doc.pdf", 10))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer doc.Close()

	var pages []Page
	for i := 2; i <= 6; i++ {
		p, err := doc.Page(i)
		if err != nil {
			t.Fatalf("Page(%d): %v", i, err)
		}
		pages = append(pages, p)
	}

	var buf bytes.Buffer
	if err := c.WriteDocument(&buf, pages); err != nil {
		t.Fatalf("WriteDocument failed: %v", err)
	}
	out := filepath.Join(dir, "doc_3-7.pdf")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	dims, err := api.PageDimsFile(out)
	if err != nil {
		t.Fatalf("PageDimsFile failed: %v", err)
	}
	if len(dims) != 5 {
		t.Fatalf("Expected 5 pages, got %d", len(dims))
	}
	for i, d := range dims {
		if want := pdftest.Width(i + 3); d.Width != want {
			t.Errorf("Page %d: expected width %v, got %v", i+1, want, d.Width)
		}
	}
}

func TestWriteDocumentRejectsEmpty(t *testing.T) {
	if err := NewPDFCPU().WriteDocument(&bytes.Buffer{}, nil); err == nil {
		t.Errorf("Expected error for empty page list")
	}
}
