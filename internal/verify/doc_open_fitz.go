package verify

import (
	fitz "github.com/gen2brain/go-fitz"
)

// fitzOpener implements Opener using github.com/gen2brain/go-fitz.
type fitzOpener struct{}

func (fitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Ensure default opener is set to fitz-based implementation.
func init() {
	setDefaultOpener(fitzOpener{})
}
