package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/pages"
)

type cutRequest struct {
	Source    string   `json:"source" binding:"required"`
	Mode      string   `json:"mode"`
	Fields    []string `json:"fields"`
	OutputDir string   `json:"output_dir"`
}

func (s *Server) handleHealth(c *gin.Context) {
	sum := s.deps.Checker.Summary(c.Request.Context())
	status := "healthy"
	if !sum.Healthy() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "pdfcutter",
		"checks":  sum,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	limit := s.deps.Config.MaxFileSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file size %d exceeds maximum allowed %d bytes", header.Size, limit)})
		return
	}
	info, err := s.detector.DetectReader(file, header.Filename)
	if err != nil || !info.Supported {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid PDF file"})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	if err := os.MkdirAll(s.deps.Config.UploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload directory"})
		return
	}
	path := filepath.Join(s.deps.Config.UploadDir, uuid.NewString()+"_"+sanitizeFilename(header.Filename))
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	out, err := os.Create(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}
	_, err = io.Copy(out, file)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		log.Error().Err(err).Str("path", path).Msg("failed to save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	log.Info().Str("file", header.Filename).Str("path", path).Int64("size", header.Size).Msg("upload saved")
	c.JSON(http.StatusOK, gin.H{"filename": header.Filename, "path": path})
}

func (s *Server) handleCut(c *gin.Context) {
	var req cutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	mode, err := pages.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source, err = s.resolveSource(req.Source); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source: " + err.Error()})
		return
	}
	if req.OutputDir, err = s.resolveOutput(req.OutputDir); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid output_dir: " + err.Error()})
		return
	}

	jobID := uuid.NewString()
	ui := newJobPresentation(jobID, req, mode, s.deps.Store)
	orch := orchestrator.New(orchestrator.Dependencies{
		Codec:        s.deps.Codec,
		Sink:         s.deps.Sink,
		Presentation: ui,
		Fetcher:      s.deps.Fetcher,
		Guard:        s.deps.Guard,
		Verify:       s.deps.Verify,
		JobID:        jobID,
	})

	if err := orch.Cut(context.Background()); err != nil {
		if errors.Is(err, orchestrator.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	go func() {
		ui.finish(orch.Wait())
		if err := orch.Close(); err != nil {
			log.Warn().Err(err).Str("job_id", jobID).Msg("failed to close document")
		}
	}()

	log.Info().Str("job_id", jobID).Str("source", req.Source).Str("mode", mode.String()).Msg("cut accepted")
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

func (s *Server) handleStatus(c *gin.Context) {
	id := c.Param("id")
	st, ok, err := s.deps.Store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": id, "status": st})
}

var errOutsideRoot = errors.New("path escapes the allowed directory")

// resolveSource limits sources to S3 objects, files under the upload
// directory and, when enabled, http(s) URLs.
func (s *Server) resolveSource(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		return ref, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		if !s.deps.Config.AllowHTTPSources {
			return "", errors.New("http sources are disabled")
		}
		return ref, nil
	}
	ref = strings.TrimPrefix(ref, "file://")
	if strings.Contains(ref, "://") {
		return "", errors.New("unsupported scheme")
	}
	return within(s.deps.Config.UploadDir, ref)
}

// resolveOutput keeps local output directories under Config.OutputDir.
// An empty dir falls back to Config.OutputDir, or next to the source when
// that is unset too.
func (s *Server) resolveOutput(dir string) (string, error) {
	root := s.deps.Config.OutputDir
	switch {
	case dir == "":
		return root, nil
	case strings.HasPrefix(dir, "s3://"):
		return dir, nil
	case strings.Contains(dir, "://"):
		return "", errors.New("unsupported scheme")
	case root == "" || strings.Contains(root, "://"):
		return "", errors.New("local output directories are disabled")
	}
	return within(root, dir)
}

// within resolves p against root and returns its absolute form, failing
// when the result is outside root.
func within(root, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return abs, nil
}

// sanitizeFilename strips directory parts and traversal sequences.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		filename = "document.pdf"
	}
	return filename
}
