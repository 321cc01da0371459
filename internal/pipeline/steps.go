package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/owner-statements/internal/docsource"
	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/logger"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// Stage is the position of a document in the per-document state machine.
type Stage string

const (
	StageFetching      Stage = "fetching"
	StageNormalizing   Stage = "normalizing"
	StageDeduplicating Stage = "deduplicating"
	StageWriting       Stage = "writing"
	StageDone          Stage = "done"
	StageError         Stage = "error"
)

// Candidate is a normalized row awaiting the dedup check.
type Candidate[K comparable] struct {
	Key K
	// Label names the row in logs, usually its property address.
	Label string
	// Primary is the row projected onto the primary table headers.
	Primary []interface{}
	// Secondary holds fan-out rows for the secondary table, if any.
	Secondary [][]interface{}
}

// Schema binds one destination layout to the shared document loop.
type Schema[K comparable] interface {
	// Variant names the run in logs and the run ledger.
	Variant() string
	Primary() tables.Spec
	// Secondary returns the fan-out table spec, or false when there is none.
	Secondary() (tables.Spec, bool)
	KeyFunc(headers []string) KeyFunc[K]
	// Normalize converts the records of one document into candidates laid
	// out for the primary and secondary table headers. It never fails;
	// filtered counts discarded records.
	Normalize(records []domain.RawRecord, primary, secondary []string) (candidates []Candidate[K], filtered int)
}

// PipelineState holds the shared state across the steps for one document.
type PipelineState[K comparable] struct {
	RunID      string
	Doc        docsource.Document
	Stage      Stage
	PDF        []byte
	Extraction *Extraction
	Candidates []Candidate[K]
	Fresh      []Candidate[K]

	Filtered    int
	Duplicates  int
	WideWritten int
	LongWritten int
}

// StatementState and TaxState are the per-document states of the two
// ingestion variants.
type (
	StatementState = PipelineState[domain.DedupKey]
	TaxState       = PipelineState[domain.TaxKey]
)

// PipelineStep is a single transition of the per-document state machine.
type PipelineStep[K comparable] interface {
	Execute(ctx context.Context, state *PipelineState[K]) error
}

// FetchStep downloads the PDF and runs extraction on it.
type FetchStep[K comparable] struct {
	Source    DocumentSource
	Extractor Extractor
	Recorder  Recorder
}

func (s *FetchStep[K]) Execute(ctx context.Context, state *PipelineState[K]) error {
	state.Stage = StageFetching

	pdf, err := s.Source.Fetch(ctx, state.Doc)
	if err != nil {
		return fmt.Errorf("%w: fetching: %w", ErrExtraction, err)
	}
	state.PDF = pdf

	ext, err := s.Extractor.Extract(ctx, pdf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	state.Extraction = ext

	if s.Recorder != nil {
		out := domain.ModelOutput{
			RunID:        state.RunID,
			DocumentURI:  state.Doc.URI,
			ModelName:    ext.Model,
			RawText:      ext.RawText,
			InputTokens:  ext.InputTokens,
			OutputTokens: ext.OutputTokens,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.Recorder.RecordModelOutput(ctx, out); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("uri", state.Doc.URI).Msg("Failed to record model output")
		}
	}
	return nil
}

// NormalizeStep converts extracted records into candidates.
type NormalizeStep[K comparable] struct {
	Schema           Schema[K]
	Headers          []string
	SecondaryHeaders []string
}

func (s *NormalizeStep[K]) Execute(ctx context.Context, state *PipelineState[K]) error {
	state.Stage = StageNormalizing
	state.Candidates, state.Filtered = s.Schema.Normalize(state.Extraction.Records, s.Headers, s.SecondaryHeaders)
	return nil
}

// DedupStep drops candidates whose key is already persisted or was written
// earlier in this run. Keys are claimed as soon as they pass the check, so a
// repeated key later in the same document is also skipped.
type DedupStep[K comparable] struct {
	Index *Index[K]
}

func (s *DedupStep[K]) Execute(ctx context.Context, state *PipelineState[K]) error {
	state.Stage = StageDeduplicating
	log := logger.FromContext(ctx)

	state.Fresh = state.Fresh[:0]
	for _, c := range state.Candidates {
		if s.Index.Contains(c.Key) {
			state.Duplicates++
			log.Info().
				Str("uri", state.Doc.URI).
				Str("property", c.Label).
				Msg("Already processed, skipping")
			continue
		}
		s.Index.Add(c.Key)
		state.Fresh = append(state.Fresh, c)
	}
	return nil
}

// WriteStep appends fresh rows. By default secondary rows go out one by one
// before the primary batch; with DeferSecondary the primary batch goes first.
type WriteStep[K comparable] struct {
	Primary        tables.Table
	Secondary      tables.Table
	DeferSecondary bool
}

func (s *WriteStep[K]) Execute(ctx context.Context, state *PipelineState[K]) error {
	state.Stage = StageWriting
	if len(state.Fresh) == 0 {
		return nil
	}

	primary := make([][]interface{}, 0, len(state.Fresh))
	var secondary [][]interface{}
	for _, c := range state.Fresh {
		primary = append(primary, c.Primary)
		secondary = append(secondary, c.Secondary...)
	}
	if s.Secondary == nil {
		secondary = nil
	}

	if s.DeferSecondary {
		if err := s.appendPrimary(ctx, state, primary); err != nil {
			return err
		}
		if len(secondary) > 0 {
			if err := s.Secondary.AppendRows(ctx, secondary); err != nil {
				return fmt.Errorf("%w: appending to %q: %w", ErrPersistence, s.Secondary.Name(), err)
			}
			state.LongWritten += len(secondary)
		}
		return nil
	}

	for _, row := range secondary {
		if err := s.Secondary.AppendRow(ctx, row); err != nil {
			return fmt.Errorf("%w: appending to %q: %w", ErrPersistence, s.Secondary.Name(), err)
		}
		state.LongWritten++
	}
	return s.appendPrimary(ctx, state, primary)
}

func (s *WriteStep[K]) appendPrimary(ctx context.Context, state *PipelineState[K], rows [][]interface{}) error {
	if err := s.Primary.AppendRows(ctx, rows); err != nil {
		return fmt.Errorf("%w: appending to %q: %w", ErrPersistence, s.Primary.Name(), err)
	}
	state.WideWritten += len(rows)
	return nil
}

// Pipeline executes the steps for one document in order.
type Pipeline[K comparable] struct {
	steps []PipelineStep[K]
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline[K comparable](steps ...PipelineStep[K]) *Pipeline[K] {
	return &Pipeline[K]{steps: steps}
}

// Execute runs all steps sequentially. A failing step moves the document to
// StageError and the returned *DocumentError names the stage it failed in.
func (p *Pipeline[K]) Execute(ctx context.Context, state *PipelineState[K]) error {
	for _, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			failed := state.Stage
			state.Stage = StageError
			return &DocumentError{URI: state.Doc.URI, Stage: failed, Err: err}
		}
	}
	state.Stage = StageDone
	return nil
}
