package cli

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/pdfcutter/internal/codec"
	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/source"
	"github.com/local/pdfcutter/internal/statuscheck"
	"github.com/local/pdfcutter/internal/store"
	"github.com/local/pdfcutter/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Example: `  pdfcutter serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if port != "" {
				cfg.Server.Port = port
			}
			ctx := cmd.Context()
			b := newBackends(ctx, cfg)

			var (
				st      store.Store
				checker statuscheck.Options
			)
			if cfg.Store.RedisURL != "" {
				rs, err := store.NewRedisStatus(cfg.Store.RedisURL, cfg.Store.TTL)
				if err != nil {
					log.Error().Err(err).Msg("failed to init redis status store")
					return err
				}
				st = rs
				checker.Store = rs
			} else {
				st = store.NewMemory(cfg.Store.TTL)
			}
			defer st.Close()
			if b.s3 != nil && s3Configured(cfg) {
				checker.S3 = b.s3
			}
			checker.Verify = cfg.Cut.Verify

			// Remote sources leave temp files behind if the process dies mid-cut.
			go sweepTemps(ctx.Done(), cfg.Cut.TempDir, cfg.Cut.TempMaxAge)

			srv := web.New(web.Dependencies{
				Codec:   codec.NewPDFCPU(),
				Sink:    b.sink,
				Fetcher: b.fetcher,
				Guard:   orchestrator.NewGuard(),
				Verify:  b.verify,
				Store:   st,
				Checker: statuscheck.New(checker),
				Config: web.Config{
					MaxFileSize:      cfg.Server.MaxFileSize,
					UploadDir:        cfg.Server.UploadDir,
					OutputDir:        cfg.Cut.OutputDir,
					AllowHTTPSources: cfg.Server.AllowHTTPSources,
				},
			})
			return srv.Run(ctx, ":"+cfg.Server.Port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PORT or 8080)")
	return cmd
}

func sweepTemps(done <-chan struct{}, dir string, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(maxAge)
	defer ticker.Stop()
	for {
		if n := source.CleanupTemps(dir, maxAge); n > 0 {
			log.Info().Int("removed", n).Str("dir", dir).Msg("removed stale source temp files")
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
