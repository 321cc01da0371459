package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/pipeline"
)

func newTaxCommand(opts *globalOptions) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Ingest property tax notices into the tax summary table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newIngestRuntime(ctx, opts.cfg, opts.dryRun)
			if err != nil {
				return err
			}
			defer rt.Close()

			if prefix == "" {
				prefix = opts.cfg.Source.TaxPrefix
			}
			summary, err := runTax(ctx, rt, prefix)
			printSummary(cmd.OutOrStdout(), summary, opts.dryRun)
			return err
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "object prefix to ingest (defaults to source.tax_prefix)")
	return cmd
}

func runTax(ctx context.Context, rt *runtime, prefix string) (domain.RunSummary, error) {
	cfg := rt.cfg
	defaults, err := taxDefaults(cfg)
	if err != nil {
		return domain.RunSummary{}, err
	}
	p := pipeline.NewTaxPipeline(
		rt.deps(pipeline.TaxNoticePrompt),
		pipeline.Options{Cooldown: cfg.Pipeline.TaxCooldown},
		cfg.Tables.Tax,
		defaults,
	)
	return p.Run(ctx, prefix)
}
