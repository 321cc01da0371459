package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/pipeline"
)

func newRunCommand(opts *globalOptions) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest owner statements into the wide and long tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newIngestRuntime(ctx, opts.cfg, opts.dryRun)
			if err != nil {
				return err
			}
			defer rt.Close()

			if prefix == "" {
				prefix = opts.cfg.Source.Prefix
			}
			summary, err := runStatements(ctx, rt, prefix)
			printSummary(cmd.OutOrStdout(), summary, opts.dryRun)
			return err
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "object prefix to ingest (defaults to source.prefix)")
	return cmd
}

func runStatements(ctx context.Context, rt *runtime, prefix string) (domain.RunSummary, error) {
	cfg := rt.cfg
	p := pipeline.NewStatementPipeline(
		rt.deps(pipeline.BuildStatementPrompt(pipeline.StatementFieldRules)),
		pipeline.Options{
			Cooldown:       cfg.Pipeline.StatementCooldown,
			DeferSecondary: cfg.Pipeline.DeferLongRows,
		},
		cfg.WideTable(),
		cfg.Tables.Long,
	)
	return p.Run(ctx, prefix)
}

func printSummary(w io.Writer, s domain.RunSummary, dryRun bool) {
	if s.RunID == "" {
		return
	}
	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "%s run %s%s: %s\n", s.Variant, s.RunID, mode, s.Status())
	fmt.Fprintf(w, "  documents: %d (%d failed)\n", s.Documents, s.FailedDocuments)
	fmt.Fprintf(w, "  records:   %d (%d filtered, %d duplicate)\n", s.Records, s.Filtered, s.Duplicates)
	fmt.Fprintf(w, "  rows:      %d wide, %d long\n", s.WideRows, s.LongRows)
}
