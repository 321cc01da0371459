package commands

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/owner-statements/internal/logger"
)

func newUploadCommand(opts *globalOptions) *cobra.Command {
	var prefix string
	var tax bool

	cmd := &cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: "Upload local PDFs to the document source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.FromContext(ctx)

			for _, f := range args {
				if !strings.EqualFold(filepath.Ext(f), ".pdf") {
					return fmt.Errorf("%s is not a PDF", f)
				}
			}

			if prefix == "" {
				prefix = opts.cfg.Source.Prefix
				if tax {
					prefix = opts.cfg.Source.TaxPrefix
				}
			}

			if opts.dryRun {
				for _, f := range args {
					fmt.Fprintf(cmd.OutOrStdout(), "would upload %s to %s\n", f, objectName(prefix, f))
				}
				return nil
			}

			rt, err := newSourceRuntime(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, f := range args {
				uri, err := rt.source.Upload(ctx, objectName(prefix, f), f)
				if err != nil {
					return fmt.Errorf("uploading %s: %w", f, err)
				}
				log.Info().Str("file", f).Str("uri", uri).Msg("Uploaded document")
				fmt.Fprintln(cmd.OutOrStdout(), uri)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "destination prefix (defaults to source.prefix)")
	cmd.Flags().BoolVar(&tax, "tax", false, "upload under source.tax_prefix")
	return cmd
}

// objectName places the file's base name under prefix using forward slashes.
func objectName(prefix, file string) string {
	base := filepath.Base(file)
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}
