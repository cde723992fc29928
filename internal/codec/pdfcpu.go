package codec

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

const pdfMIME = "application/pdf"

// PDFCPU implements Codec on top of github.com/pdfcpu/pdfcpu.
type PDFCPU struct {
	conf *model.Configuration
}

// NewPDFCPU creates a codec using relaxed validation, which tolerates the
// minor syntax errors common in real-world files.
func NewPDFCPU() *PDFCPU {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPU{conf: conf}
}

// Open sniffs, parses and validates the file at path. The file stays open
// until the returned Document is closed because pdfcpu dereferences
// objects lazily.
func (c *PDFCPU) Open(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableDocumentError{Path: path, Err: err}
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, &UnreadableDocumentError{Path: path, Err: fmt.Errorf("detect file type: %w", err)}
	}
	if !mt.Is(pdfMIME) {
		f.Close()
		return nil, &UnreadableDocumentError{Path: path, Err: fmt.Errorf("not a PDF (detected %s)", mt.String())}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, &UnreadableDocumentError{Path: path, Err: err}
	}

	ctx, err := api.ReadContext(f, c.conf)
	if err != nil {
		f.Close()
		return nil, &UnreadableDocumentError{Path: path, Err: fmt.Errorf("read context: %w", err)}
	}
	if err := api.ValidateContext(ctx); err != nil {
		f.Close()
		return nil, &UnreadableDocumentError{Path: path, Err: fmt.Errorf("validate: %w", err)}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		f.Close()
		return nil, &UnreadableDocumentError{Path: path, Err: fmt.Errorf("page count: %w", err)}
	}

	log.Debug().Str("file", path).Int("pages", ctx.PageCount).Msg("opened pdf")
	return &pdfDocument{path: path, file: f, ctx: ctx}, nil
}

// WriteDocument extracts pages into a fresh context and serializes it to w.
// All pages must come from the same Document opened by this codec.
func (c *PDFCPU) WriteDocument(w io.Writer, pages []Page) error {
	if len(pages) == 0 {
		return errors.New("no pages to write")
	}
	var src *pdfDocument
	nrs := make([]int, 0, len(pages))
	for _, p := range pages {
		pp, ok := p.(*pdfPage)
		if !ok {
			return fmt.Errorf("page %d was not opened by the pdfcpu codec", p.Number())
		}
		if src == nil {
			src = pp.doc
		} else if pp.doc != src {
			return errors.New("pages belong to different documents")
		}
		nrs = append(nrs, pp.nr)
	}
	if src.ctx == nil {
		return fmt.Errorf("document %s is closed", src.path)
	}

	out, err := pdfcpu.ExtractPages(src.ctx, nrs, false)
	if err != nil {
		return fmt.Errorf("extract pages: %w", err)
	}
	if err := api.WriteContext(out, w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfDocument struct {
	path string
	file *os.File
	ctx  *model.Context
}

func (d *pdfDocument) Path() string { return d.path }

func (d *pdfDocument) PageCount() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.PageCount
}

func (d *pdfDocument) Page(index int) (Page, error) {
	n := d.PageCount()
	if index < 0 || index >= n {
		return nil, &IndexError{Index: index, Count: n}
	}
	return &pdfPage{doc: d, nr: index + 1}, nil
}

func (d *pdfDocument) Close() error {
	d.ctx = nil
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

type pdfPage struct {
	doc *pdfDocument
	nr  int
}

func (p *pdfPage) Number() int { return p.nr }
