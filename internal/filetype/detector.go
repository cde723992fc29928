package filetype

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const pdfMIME = "application/pdf"

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	info := d.classify(mtype, filepath.Ext(filePath))
	log.Debug().Str("mime", info.MIMEType).Str("file", filePath).Bool("supported", info.Supported).Msg("detected file type")
	return info, nil
}

// DetectReader sniffs the head of r. name is only used to warn about
// misleading extensions.
func (d *Detector) DetectReader(r io.Reader, name string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	return d.classify(mtype, filepath.Ext(name)), nil
}

// classify determines whether the content can be cut
func (d *Detector) classify(mtype *mimetype.MIME, ext string) *FileTypeInfo {
	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}

	switch {
	case mtype.Is(pdfMIME):
		info.Supported = true
		info.Description = "PDF document"
	case strings.HasPrefix(info.MIMEType, "text/"):
		info.Description = "Plain text file"
	case strings.HasPrefix(info.MIMEType, "image/"):
		info.Description = "Image file"
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}

	// A .pdf name on non-PDF content usually means a truncated or renamed file.
	if !info.Supported && strings.EqualFold(ext, ".pdf") {
		log.Warn().Str("mime", info.MIMEType).Msg("file named .pdf is not a PDF")
	}
	return info
}
