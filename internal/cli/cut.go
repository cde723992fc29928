package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/local/pdfcutter/internal/codec"
	"github.com/local/pdfcutter/internal/console"
	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/pages"
)

func newCutCmd(a *app) *cobra.Command {
	var (
		mode   string
		start  string
		end    string
		list   string
		out    string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "cut SOURCE",
		Short: "Cut a PDF into a range, a list of pages, or every page",
		Example: `  # Pages 3 to 7 into doc_3-7.pdf next to doc.pdf
  pdfcutter cut doc.pdf --start 3 --end 7

  # Pages 2 and 5 as separate files in ./out
  pdfcutter cut doc.pdf --mode multiple --pages "2, 5" --out ./out

  # Every page of an S3 object back into S3
  pdfcutter cut s3://bucket/doc.pdf --mode each --out s3://bucket/pages`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := pages.ParseMode(mode)
			if err != nil {
				return err
			}
			if out == "" {
				out = a.cfg.Cut.OutputDir
			}
			if cmd.Flags().Changed("verify") {
				a.cfg.Cut.Verify = verify
			}

			b := newBackends(cmd.Context(), a.cfg)
			ui := console.New(console.Options{
				Source: args[0],
				Mode:   m,
				Start:  start,
				End:    end,
				Pages:  list,
				Out:    out,
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			orch := orchestrator.New(orchestrator.Dependencies{
				Codec:        codec.NewPDFCPU(),
				Sink:         b.sink,
				Presentation: ui,
				Fetcher:      b.fetcher,
				Verify:       b.verify,
				JobID:        uuid.NewString(),
			})
			defer orch.Close()

			// The notice for an unreadable source is already on stderr.
			if err := orch.Open(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := orch.Cut(cmd.Context()); err != nil {
				return err
			}
			res := orch.Wait()
			for _, f := range res.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			if errors.Is(res.Err, pages.ErrEmptyInput) {
				return nil
			}
			if res.Err != nil {
				return fmt.Errorf("cut failed: %w", res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "range", "Selection mode: range, multiple or each")
	cmd.Flags().StringVar(&start, "start", "", "First page of the range")
	cmd.Flags().StringVar(&end, "end", "", "Last page of the range")
	cmd.Flags().StringVarP(&list, "pages", "p", "", `Comma separated pages for multiple mode, e.g. "2, 5, 9"`)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory or s3:// prefix (default: next to the source)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-open written files and check their page counts")

	return cmd
}
