// Package codec reads PDF documents and writes page subsets of them.
package codec

import (
	"fmt"
	"io"
)

// Page is a handle to one page of an open Document.
type Page interface {
	// Number is the 1-based page number inside its source document.
	Number() int
}

// Document is an opened, readable PDF with a known page count.
type Document interface {
	Path() string
	PageCount() int
	// Page returns the page at a zero-based index or an *IndexError.
	Page(index int) (Page, error)
	Close() error
}

// Codec opens source documents and writes new documents from their pages.
type Codec interface {
	Open(path string) (Document, error)
	// WriteDocument writes a single PDF holding pages, in order, to w.
	WriteDocument(w io.Writer, pages []Page) error
}

// UnreadableDocumentError is returned when a source cannot be opened or parsed as a PDF.
type UnreadableDocumentError struct {
	Path string
	Err  error
}

func (e *UnreadableDocumentError) Error() string {
	return fmt.Sprintf("cannot read PDF %s: %v", e.Path, e.Err)
}

func (e *UnreadableDocumentError) Unwrap() error { return e.Err }

// IndexError is returned when a page index lies outside the document.
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("page index %d out of range (document has %d pages)", e.Index, e.Count)
}
