package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfcutter/internal/config"
	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/sink"
	"github.com/local/pdfcutter/internal/source"
	"github.com/local/pdfcutter/internal/storage"
	"github.com/local/pdfcutter/internal/verify"
)

// backends holds the I/O shared by every cut of a process.
type backends struct {
	s3      *storage.S3Client // nil when the AWS config cannot be loaded
	fetcher *source.Fetcher
	sink    sink.Sink
	verify  orchestrator.Verifier
}

func newBackends(ctx context.Context, cfg config.Config) *backends {
	b := &backends{}

	s3c, err := storage.NewS3Client(ctx, storage.Options{
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		UsePathStyle:    cfg.S3.PathStyle,
	})
	if err != nil {
		log.Warn().Err(err).Msg("s3 disabled")
	}

	b.fetcher = &source.Fetcher{
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
		TempDir: cfg.Cut.TempDir,
	}
	router := sink.Router{Local: sink.Local{}}
	if s3c != nil {
		b.s3 = s3c
		b.fetcher.S3 = s3c
		router.S3 = sink.Remote{Uploader: s3c}
	}
	b.sink = router

	if cfg.Cut.Verify {
		b.verify = verify.PageCount
	}
	return b
}

// s3Configured reports whether S3 was set up explicitly, so health checks
// only ping it when it is meant to be used.
func s3Configured(cfg config.Config) bool {
	return cfg.S3.Endpoint != "" || cfg.S3.AccessKeyID != ""
}
