package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/owner-statements/internal/logger"
)

func newScheduleCommand(opts *globalOptions) *cobra.Command {
	var spec, timezone string
	var withTax, runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if spec == "" {
				spec = cfg.Schedule.Cron
			}
			if timezone == "" {
				timezone = cfg.Schedule.Timezone
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logger.FromContext(ctx)

			rt, err := newIngestRuntime(ctx, cfg, opts.dryRun)
			if err != nil {
				return err
			}
			defer rt.Close()

			job := func() {
				if _, err := runStatements(ctx, rt, cfg.Source.Prefix); err != nil {
					log.Error().Err(err).Msg("Statement run failed")
				}
				if !withTax || ctx.Err() != nil {
					return
				}
				if _, err := runTax(ctx, rt, cfg.Source.TaxPrefix); err != nil {
					log.Error().Err(err).Msg("Tax run failed")
				}
			}

			c, guarded, err := newScheduler(spec, timezone, log, job)
			if err != nil {
				return err
			}

			log.Info().Str("cron", spec).Str("timezone", timezone).Bool("tax", withTax).Msg("Scheduler started")
			serveSchedule(ctx, c, guarded, runNow)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron expression (defaults to schedule.cron)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for the schedule (defaults to schedule.timezone)")
	cmd.Flags().BoolVar(&withTax, "tax", false, "also ingest tax notices after statements")
	cmd.Flags().BoolVar(&runNow, "now", false, "run once immediately after starting")
	return cmd
}

// serveSchedule runs c until ctx is done, optionally running job once right
// away. It returns only after every run it started has finished, so clients
// can be closed safely afterwards.
func serveSchedule(ctx context.Context, c *cron.Cron, job cron.Job, runNow bool) {
	log := logger.FromContext(ctx)

	var wg sync.WaitGroup
	c.Start()
	if runNow {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down scheduler, waiting for the running job")
	<-c.Stop().Done()
	wg.Wait()
}

// newScheduler builds a cron scheduler for job. The returned job is the
// guarded form registered with the scheduler; running it while a scheduled
// run is in progress is a no-op.
func newScheduler(spec, timezone string, log zerolog.Logger, job func()) (*cron.Cron, cron.Job, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
		loc = l
	}

	cl := cronLogger{log: log}
	guarded := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(job))

	c := cron.New(cron.WithLocation(loc), cron.WithLogger(cl))
	if _, err := c.AddJob(spec, guarded); err != nil {
		return nil, nil, fmt.Errorf("parsing cron expression %q: %w", spec, err)
	}
	return c, guarded, nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

var _ cron.Logger = cronLogger{}
