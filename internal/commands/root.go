package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvloznov/owner-statements/internal/config"
	"github.com/dvloznov/owner-statements/internal/logger"
)

const defaultConfigPath = "ledger.yaml"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	dryRun     bool
	deferLong  bool

	cfg *config.Config
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ingest property owner statements and tax notices into tables",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath, "path to the YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "read the destination but keep all writes in memory")
	flags.BoolVar(&opts.deferLong, "defer-long-rows", false, "append long rows only after the wide batch lands")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newTaxCommand(opts))
	rootCmd.AddCommand(newUploadCommand(opts))
	rootCmd.AddCommand(newScheduleCommand(opts))

	return rootCmd
}

// setup loads configuration and installs the logger on the command context.
func (o *globalOptions) setup(cmd *cobra.Command) error {
	path := o.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("defer-long-rows") {
		cfg.Pipeline.DeferLongRows = o.deferLong
	}

	log, err := logger.NewWithLevel(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	if path != "" {
		log.Debug().Str("path", path).Msg("Loaded config")
	}

	o.cfg = cfg
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}
