package commands

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/auth/credentials"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/genai"

	"github.com/dvloznov/owner-statements/internal/config"
	"github.com/dvloznov/owner-statements/internal/docsource"
	"github.com/dvloznov/owner-statements/internal/infra/bigquery"
	"github.com/dvloznov/owner-statements/internal/infra/memory"
	"github.com/dvloznov/owner-statements/internal/infra/postgres"
	"github.com/dvloznov/owner-statements/internal/infra/sheets"
	"github.com/dvloznov/owner-statements/internal/infra/xlsx"
	"github.com/dvloznov/owner-statements/internal/logger"
	"github.com/dvloznov/owner-statements/internal/pipeline"
	"github.com/dvloznov/owner-statements/internal/tables"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// documentStore is a document source that can also accept uploads.
type documentStore interface {
	pipeline.DocumentSource
	Upload(ctx context.Context, name, filePath string) (string, error)
}

// runtime holds the clients built from config for one command invocation.
type runtime struct {
	cfg      *config.Config
	source   documentStore
	tables   tables.Service
	recorder pipeline.Recorder
	genai    *genai.Client

	closers []func() error
}

// Close releases every client in reverse construction order.
func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// deps returns pipeline collaborators using an extractor with prompt.
func (r *runtime) deps(prompt string) pipeline.Deps {
	return pipeline.Deps{
		Source:    r.source,
		Extractor: pipeline.NewGeminiExtractor(r.genai, r.cfg.Model.Name, prompt),
		Tables:    r.tables,
		Recorder:  r.recorder,
	}
}

// newIngestRuntime builds the source, table service, ledger and model client.
func newIngestRuntime(ctx context.Context, cfg *config.Config, dryRun bool) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ValidateExtraction(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rt := &runtime{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	if err := rt.openSource(ctx); err != nil {
		return nil, err
	}
	if err := rt.openTables(ctx, dryRun); err != nil {
		return nil, err
	}

	client, err := newGenAIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt.genai = client

	ok = true
	return rt, nil
}

// newSourceRuntime builds only the document store.
func newSourceRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	rt := &runtime{cfg: cfg}
	if err := rt.openSource(ctx); err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *runtime) openSource(ctx context.Context) error {
	cfg := r.cfg
	switch cfg.Source.Kind {
	case config.SourceGCS:
		src, err := docsource.NewGCSSource(ctx, cfg.Source.Bucket, googleOptions(cfg)...)
		if err != nil {
			return fmt.Errorf("opening gcs source: %w", err)
		}
		r.source = src
		r.closers = append(r.closers, src.Close)
	case config.SourceS3:
		src, err := docsource.NewS3Source(ctx, cfg.Source.Bucket, cfg.Source.Region)
		if err != nil {
			return fmt.Errorf("opening s3 source: %w", err)
		}
		r.source = src
	case config.SourceLocal:
		r.source = docsource.NewLocalSource(cfg.Source.Dir)
	default:
		return fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
	return nil
}

func (r *runtime) openTables(ctx context.Context, dryRun bool) error {
	cfg := r.cfg
	log := logger.FromContext(ctx)

	var svc tables.Service
	switch cfg.Sink.Kind {
	case config.SinkSheets:
		s, err := sheets.NewService(ctx, cfg.Sink.SpreadsheetID, cfg.Sink.SpreadsheetName, googleOptions(cfg)...)
		if err != nil {
			return fmt.Errorf("opening sheets sink: %w", err)
		}
		svc = s
	case config.SinkBigQuery:
		s, err := bigquery.NewService(ctx, cfg.Google.Project, cfg.Sink.Dataset, googleOptions(cfg)...)
		if err != nil {
			return fmt.Errorf("opening bigquery sink: %w", err)
		}
		r.closers = append(r.closers, s.Close)
		svc = s

		if cfg.Sink.RecordRuns && !dryRun {
			ledger := bigquery.NewLedger(s.Client(), cfg.Sink.Dataset)
			if err := ledger.EnsureLedger(ctx); err != nil {
				return fmt.Errorf("preparing run ledger: %w", err)
			}
			r.recorder = ledger
		}
	case config.SinkPostgres:
		s, err := postgres.NewService(ctx, cfg.Sink.PostgresDSN, cfg.Sink.PostgresSchema)
		if err != nil {
			return fmt.Errorf("opening postgres sink: %w", err)
		}
		r.closers = append(r.closers, func() error { s.Close(); return nil })
		svc = s
	case config.SinkXLSX:
		s, err := xlsx.Open(cfg.Sink.XLSXPath)
		if err != nil {
			return fmt.Errorf("opening xlsx sink: %w", err)
		}
		r.closers = append(r.closers, s.Close)
		svc = s
	case config.SinkMemory:
		svc = memory.NewService()
	default:
		return fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}

	if dryRun {
		log.Info().Str("sink", cfg.Sink.Kind).Msg("Dry run: writes stay in memory")
		svc = memory.NewShadow(svc)
	}
	r.tables = svc
	return nil
}

func googleOptions(cfg *config.Config) []option.ClientOption {
	if cfg.Google.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.Google.CredentialsFile)}
}

// newGenAIClient targets the Gemini API when an API key is configured and
// Vertex AI otherwise.
func newGenAIClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}

	if cfg.Google.APIKey != "" {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.Google.APIKey
	} else {
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Google.Project
		cc.Location = cfg.Google.Location

		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes:          []string{cloudPlatformScope},
			CredentialsFile: cfg.Google.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("newGenAIClient: detecting credentials: %w", err)
		}
		cc.Credentials = creds
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("newGenAIClient: creating client: %w", err)
	}
	return client, nil
}

// taxDefaults layers configured rates over the built-in Kingston rates.
func taxDefaults(cfg *config.Config) (pipeline.TaxDefaults, error) {
	d := pipeline.KingstonTaxDefaults()
	for year, raw := range cfg.Tax.Rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return d, fmt.Errorf("parsing tax rate for %d: %w", year, err)
		}
		d.Rates[year] = rate
	}
	for _, year := range cfg.Tax.NoFinalBillYears {
		d.NoFinalBillYears[year] = true
	}
	return d, nil
}
