// Package verify reopens written documents with an independent PDF engine
// and checks they hold the expected number of pages.
package verify

import (
	"errors"
	"fmt"
)

// Doc abstracts an opened PDF document.
type Doc interface {
	NumPage() int
	Close() error
}

// Opener abstracts opening a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// defaultOpener is provided in doc_open_fitz.go using go-fitz.
var defaultOpener Opener

// setDefaultOpener allows swapping the default opener, useful for tests or alternate backends.
func setDefaultOpener(o Opener) { defaultOpener = o }

// MismatchError reports a written document with an unexpected page count.
type MismatchError struct {
	Path string
	Want int
	Got  int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d pages, found %d", e.Path, e.Want, e.Got)
}

// PageCount checks that the PDF at path has exactly want pages.
func PageCount(path string, want int) error {
	if defaultOpener == nil {
		return errors.New("no PDF opener configured")
	}
	d, err := defaultOpener.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer d.Close()

	if got := d.NumPage(); got != want {
		return &MismatchError{Path: path, Want: want, Got: got}
	}
	return nil
}
