// Package pdftest builds small, valid PDF files for tests.
//
// Every page gets its own MediaBox whose width is Width(page), so tests can
// tell pages apart after they have been split into other documents.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Width returns the MediaBox width given to the 1-based page number n.
func Width(n int) float64 { return float64(100 + n) }

// Build returns a PDF document with n empty pages.
func Build(n int) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, n+2)

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 0; i < n; i++ {
		if i > 0 {
			kids.WriteByte(' ')
		}
		fmt.Fprintf(&kids, "%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), n))

	for i := 1; i <= n; i++ {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 792] /Resources << >> >>", int(Width(i))))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// WriteFile writes an n-page PDF named name into dir and returns its path.
func WriteFile(tb testing.TB, dir, name string, n int) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, Build(n), 0o644); err != nil {
		tb.Fatalf("write fixture %s: %v", p, err)
	}
	return p
}
