// Package splitter turns a resolved page selection into the sequence of
// documents a cut produces.
package splitter

import (
	"errors"
	"fmt"
	"iter"

	"github.com/local/pdfcutter/internal/codec"
	"github.com/local/pdfcutter/internal/pages"
)

// PageNotFoundError reports a selected page the source document does not have.
type PageNotFoundError struct {
	Page int // 1-based
	Err  error
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("Page %d not exist", e.Page)
}

func (e *PageNotFoundError) Unwrap() error { return e.Err }

// Output is one document to be written: its pages in order.
type Output struct {
	Pages []codec.Page
}

// Split lazily produces the output documents for sel. Range yields one
// document spanning start..end; Multiple and Each yield one single-page
// document per index. A missing page ends the sequence with a
// *PageNotFoundError; for Range that is the end page when it lies past the
// document, else the first missing page. Split only reads from doc.
func Split(doc codec.Document, sel pages.Selection) iter.Seq2[Output, error] {
	return func(yield func(Output, error) bool) {
		if sel.Mode == pages.Range {
			// The end page is checked first so a range running past the
			// document reports the page the user asked for.
			if _, err := page(doc, sel.End()); err != nil {
				yield(Output{}, err)
				return
			}
			out := Output{Pages: make([]codec.Page, 0, sel.End()-sel.Start()+1)}
			for i := sel.Start(); i <= sel.End(); i++ {
				p, err := page(doc, i)
				if err != nil {
					yield(Output{}, err)
					return
				}
				out.Pages = append(out.Pages, p)
			}
			yield(out, nil)
			return
		}

		for _, i := range sel.Indices {
			p, err := page(doc, i)
			if err != nil {
				yield(Output{}, err)
				return
			}
			if !yield(Output{Pages: []codec.Page{p}}, nil) {
				return
			}
		}
	}
}

func page(doc codec.Document, index int) (codec.Page, error) {
	p, err := doc.Page(index)
	if err == nil {
		return p, nil
	}
	var ie *codec.IndexError
	if errors.As(err, &ie) {
		return nil, &PageNotFoundError{Page: index + 1, Err: err}
	}
	return nil, fmt.Errorf("read page %d: %w", index+1, err)
}
