// Package planner derives output file paths for the documents a cut produces.
package planner

import (
	"fmt"
	"iter"
	"path"
	"path/filepath"
	"strings"

	"github.com/local/pdfcutter/internal/pages"
)

// BaseName returns the source file name without its extension.
func BaseName(source string) string {
	var name string
	if isURL(source) {
		name = path.Base(trimRef(source))
	} else {
		name = filepath.Base(source)
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// SourceDir returns the directory (or URL prefix) holding source.
func SourceDir(source string) string {
	if strings.HasPrefix(source, "file://") {
		return filepath.Dir(strings.TrimPrefix(source, "file://"))
	}
	if isURL(source) {
		scheme, rest, _ := strings.Cut(trimRef(source), "://")
		return scheme + "://" + path.Dir(rest)
	}
	return filepath.Dir(source)
}

// Destination picks the chosen output directory when the user asked for a
// custom one, otherwise the source's own directory.
func Destination(source string, custom bool, outputDir string) string {
	if custom && strings.TrimSpace(outputDir) != "" {
		return outputDir
	}
	return SourceDir(source)
}

// Plan yields one path per document produced for sel, in production order.
// Duplicate pages yield duplicate paths; later writes overwrite earlier ones.
func Plan(sel pages.Selection, source, dir string) iter.Seq[string] {
	base := BaseName(source)
	return func(yield func(string) bool) {
		if sel.Mode == pages.Range {
			yield(join(dir, fmt.Sprintf("%s_%d-%d.pdf", base, sel.Start()+1, sel.End()+1)))
			return
		}
		for _, i := range sel.Indices {
			if !yield(join(dir, fmt.Sprintf("%s_%d.pdf", base, i+1))) {
				return
			}
		}
	}
}

func join(dir, name string) string {
	if isURL(dir) && !strings.HasPrefix(dir, "file://") {
		return strings.TrimRight(dir, "/") + "/" + name
	}
	return filepath.Join(strings.TrimPrefix(dir, "file://"), name)
}

func isURL(s string) bool { return strings.Contains(s, "://") }

// trimRef drops query strings and fragments from a URL reference.
func trimRef(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
