// Package web exposes cuts over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfcutter/internal/codec"
	"github.com/local/pdfcutter/internal/filetype"
	"github.com/local/pdfcutter/internal/metrics"
	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/sink"
	"github.com/local/pdfcutter/internal/statuscheck"
	"github.com/local/pdfcutter/internal/store"
)

// Config holds HTTP limits and paths. Cut requests may only read local
// files under UploadDir and write local files under OutputDir.
type Config struct {
	MaxFileSize      int64
	UploadDir        string
	OutputDir        string // default output directory when a request names none
	AllowHTTPSources bool
}

// Dependencies wires a Server.
type Dependencies struct {
	Codec   codec.Codec
	Sink    sink.Sink
	Fetcher orchestrator.Fetcher
	Guard   *orchestrator.Guard
	Verify  orchestrator.Verifier
	Store   store.Store
	Checker *statuscheck.Checker
	Config  Config
}

type Server struct {
	deps     Dependencies
	detector *filetype.Detector
}

func New(deps Dependencies) *Server {
	if deps.Guard == nil {
		deps.Guard = orchestrator.NewGuard()
	}
	if deps.Store == nil {
		deps.Store = store.NewMemory(0)
	}
	if deps.Checker == nil {
		deps.Checker = statuscheck.New(statuscheck.Options{})
	}
	if deps.Config.MaxFileSize <= 0 {
		deps.Config.MaxFileSize = 100 << 20
	}
	if deps.Config.UploadDir == "" {
		deps.Config.UploadDir = "uploads"
	}
	return &Server{deps: deps, detector: filetype.New()}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/cut", s.handleCut)
		api.GET("/cut/:id", s.handleStatus)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
