package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/owner-statements/internal/docsource"
	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/logger"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// Options tune an ingestion run.
type Options struct {
	// Cooldown is the pause after every document, successful or not.
	Cooldown time.Duration

	// DeferSecondary writes the primary batch before any fan-out rows.
	DeferSecondary bool
}

// Deps are the collaborators of an ingestion run.
type Deps struct {
	Source    DocumentSource
	Extractor Extractor
	Tables    tables.Service
	// Recorder is optional.
	Recorder Recorder
}

// IngestionPipeline processes every document at a location sequentially,
// isolating failures per document.
type IngestionPipeline[K comparable] struct {
	schema Schema[K]
	deps   Deps
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewIngestionPipeline wires a pipeline for schema.
func NewIngestionPipeline[K comparable](schema Schema[K], deps Deps, opts Options) *IngestionPipeline[K] {
	return &IngestionPipeline[K]{
		schema: schema,
		deps:   deps,
		opts:   opts,
		sleep:  sleepContext,
	}
}

// NewStatementPipeline returns the owner statement pipeline writing to the
// wide and long tables.
func NewStatementPipeline(deps Deps, opts Options, wide, long string) *IngestionPipeline[domain.DedupKey] {
	return NewIngestionPipeline[domain.DedupKey](NewStatementSchema(wide, long), deps, opts)
}

// NewTaxPipeline returns the property tax pipeline.
func NewTaxPipeline(deps Deps, opts Options, table string, defaults TaxDefaults) *IngestionPipeline[domain.TaxKey] {
	return NewIngestionPipeline[domain.TaxKey](NewTaxSchema(table, defaults), deps, opts)
}

// Run ingests every document listed at location. Per-document failures are
// logged and counted; the returned error is reserved for failures that stop
// the run before or between documents.
func (p *IngestionPipeline[K]) Run(ctx context.Context, location string) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:     uuid.New().String(),
		Variant:   p.schema.Variant(),
		StartedAt: time.Now().UTC(),
	}
	ctx = logger.WithRun(ctx, summary.RunID, summary.Variant)
	log := logger.FromContext(ctx)

	defer func() {
		summary.FinishedAt = time.Now().UTC()
		log.Info().
			Int("documents", summary.Documents).
			Int("failed", summary.FailedDocuments).
			Int("records", summary.Records).
			Int("filtered", summary.Filtered).
			Int("duplicates", summary.Duplicates).
			Int("wide_rows", summary.WideRows).
			Int("long_rows", summary.LongRows).
			Msg("All documents processed")
	}()

	primary, err := p.deps.Tables.EnsureTable(ctx, p.schema.Primary())
	if err != nil {
		return summary, fmt.Errorf("Run: ensuring table %q: %w", p.schema.Primary().Name, err)
	}

	var secondary tables.Table
	if spec, ok := p.schema.Secondary(); ok {
		secondary, err = p.deps.Tables.EnsureTable(ctx, spec)
		if err != nil {
			return summary, fmt.Errorf("Run: ensuring table %q: %w", spec.Name, err)
		}
	}

	index, err := BuildIndex(ctx, primary, p.schema.KeyFunc(primary.Headers()))
	if err != nil {
		return summary, fmt.Errorf("Run: %w", err)
	}
	log.Info().Int("keys", index.Len()).Str("table", primary.Name()).Msg("Loaded existing keys")

	docs, err := p.deps.Source.List(ctx, location)
	if err != nil {
		return summary, fmt.Errorf("Run: listing %q: %w", location, err)
	}
	log.Info().Int("count", len(docs)).Str("location", location).Msg("Found documents")

	var secondaryHeaders []string
	if secondary != nil {
		secondaryHeaders = secondary.Headers()
	}

	steps := NewPipeline[K](
		&FetchStep[K]{Source: p.deps.Source, Extractor: p.deps.Extractor, Recorder: p.deps.Recorder},
		&NormalizeStep[K]{Schema: p.schema, Headers: primary.Headers(), SecondaryHeaders: secondaryHeaders},
		&DedupStep[K]{Index: index},
		&WriteStep[K]{Primary: primary, Secondary: secondary, DeferSecondary: p.opts.DeferSecondary},
	)

	for _, doc := range docs {
		p.processDocument(ctx, steps, doc, &summary)

		if err := p.sleep(ctx, p.opts.Cooldown); err != nil {
			p.record(ctx, summary)
			return summary, fmt.Errorf("Run: %w", err)
		}
	}

	summary.FinishedAt = time.Now().UTC()
	p.record(ctx, summary)
	return summary, nil
}

func (p *IngestionPipeline[K]) processDocument(ctx context.Context, steps *Pipeline[K], doc docsource.Document, summary *domain.RunSummary) {
	log := logger.FromContext(ctx).With().Str("uri", doc.URI).Logger()
	log.Info().Msg("Processing document")

	state := &PipelineState[K]{RunID: summary.RunID, Doc: doc}
	err := steps.Execute(logger.WithContext(ctx, log), state)

	summary.Documents++
	if state.Extraction != nil {
		summary.Records += len(state.Extraction.Records)
	}
	summary.Filtered += state.Filtered
	summary.Duplicates += state.Duplicates
	summary.WideRows += state.WideWritten
	summary.LongRows += state.LongWritten

	if err != nil {
		summary.FailedDocuments++
		var docErr *DocumentError
		stage := StageError
		if errors.As(err, &docErr) {
			stage = docErr.Stage
		}
		log.Error().Err(err).Str("stage", string(stage)).Msg("Error processing document")
		return
	}

	if state.WideWritten == 0 {
		log.Info().Msg("No new data. Already processed.")
		return
	}
	log.Info().
		Int("rows", state.WideWritten).
		Int("long_rows", state.LongWritten).
		Msg("Appended new rows")
}

func (p *IngestionPipeline[K]) record(ctx context.Context, summary domain.RunSummary) {
	if p.deps.Recorder == nil {
		return
	}
	// The run context may already be cancelled; the ledger write should
	// still go out.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := p.deps.Recorder.RecordRun(rctx, summary); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to record run")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
