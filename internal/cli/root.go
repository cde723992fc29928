// Package cli implements the pdfcutter commands.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/local/pdfcutter/internal/config"
	"github.com/local/pdfcutter/internal/logger"
	"github.com/local/pdfcutter/internal/metrics"
)

// app carries state shared by subcommands once the root has loaded config.
type app struct {
	configPath string
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "pdfcutter",
		Short: "Cut PDF documents into page ranges or single pages",
		Long: `pdfcutter splits a PDF into a page range, a list of single pages, or
one file per page. Sources may be local paths, http(s) URLs or s3:// objects.

Run "pdfcutter serve" to expose the same operations over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			if err := logger.Init(logger.Options{
				Level:        cfg.Logging.Level,
				Pretty:       cfg.Logging.Pretty,
				File:         cfg.Logging.File,
				MaxSizeMB:    cfg.Logging.MaxSizeMB,
				MaxBackups:   cfg.Logging.MaxBackups,
				MaxAgeDays:   cfg.Logging.MaxAgeDays,
				Compress:     cfg.Logging.Compress,
				Console:      os.Stderr,
				SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
				AxiomAPIKey:  cfg.Axiom.APIKey,
				AxiomOrgID:   cfg.Axiom.OrgID,
				AxiomDataset: cfg.Axiom.Dataset,
				AxiomFlush:   cfg.Axiom.FlushInterval,
			}); err != nil {
				return err
			}
			metrics.Init()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $PDFCUTTER_CONFIG)")

	cmd.AddCommand(newCutCmd(a))
	cmd.AddCommand(newInfoCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}
