package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/pdfcutter/internal/codec"
	"github.com/local/pdfcutter/internal/filetype"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info SOURCE",
		Short: "Print the type and page count of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := newBackends(cmd.Context(), a.cfg)
			path, cleanup, err := b.fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			ft, err := filetype.New().Detect(path)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source: %s\n", args[0])
			fmt.Fprintf(w, "type:   %s\n", ft.Description)
			if !ft.Supported {
				return fmt.Errorf("%s is not a PDF (%s)", args[0], ft.MIMEType)
			}

			doc, err := codec.NewPDFCPU().Open(path)
			if err != nil {
				return err
			}
			defer doc.Close()
			fmt.Fprintf(w, "pages:  %d\n", doc.PageCount())
			return nil
		},
	}
}
