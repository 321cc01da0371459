package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/owner-statements/internal/domain"
)

const (
	ingestionRunsTable = "ingestion_runs"
	modelOutputsTable  = "model_outputs"
)

// Ledger records runs and raw model output in BigQuery. It implements
// pipeline.Recorder.
type Ledger struct {
	client  *bigquery.Client
	dataset string
}

// NewLedger returns a ledger writing to dataset.
func NewLedger(client *bigquery.Client, dataset string) *Ledger {
	return &Ledger{client: client, dataset: dataset}
}

// EnsureLedger creates the ledger tables when they are missing.
func (l *Ledger) EnsureLedger(ctx context.Context) error {
	for name, row := range map[string]interface{}{
		ingestionRunsTable: IngestionRunRow{},
		modelOutputsTable:  ModelOutputRow{},
	} {
		ref := l.client.Dataset(l.dataset).Table(name)
		_, err := ref.Metadata(ctx)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return fmt.Errorf("EnsureLedger: reading metadata for %s: %w", name, err)
		}
		schema, err := bigquery.InferSchema(row)
		if err != nil {
			return fmt.Errorf("EnsureLedger: inferring schema for %s: %w", name, err)
		}
		if err := ref.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return fmt.Errorf("EnsureLedger: creating %s: %w", name, err)
		}
	}
	return nil
}

// RecordModelOutput inserts one row into model_outputs. Uses DML INSERT so
// the row is immediately visible to later DML.
func (l *Ledger) RecordModelOutput(ctx context.Context, out domain.ModelOutput) error {
	row := &ModelOutputRow{
		OutputID:     uuid.NewString(),
		RunID:        out.RunID,
		DocumentURI:  out.DocumentURI,
		ModelName:    out.ModelName,
		RawText:      out.RawText,
		TokensInput:  nullInt(out.InputTokens),
		TokensOutput: nullInt(out.OutputTokens),
		CreatedTS:    out.CreatedAt,
	}

	q := l.client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			output_id, run_id, document_uri,
			model_name, raw_text,
			tokens_input, tokens_output, created_ts
		)
		VALUES (
			@output_id, @run_id, @document_uri,
			@model_name, @raw_text,
			@tokens_input, @tokens_output, @created_ts
		)
	`, l.dataset, modelOutputsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "run_id", Value: row.RunID},
		{Name: "document_uri", Value: row.DocumentURI},
		{Name: "model_name", Value: row.ModelName},
		{Name: "raw_text", Value: row.RawText},
		{Name: "tokens_input", Value: row.TokensInput},
		{Name: "tokens_output", Value: row.TokensOutput},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	return runDML(ctx, q, "RecordModelOutput")
}

// RecordRun inserts the final summary of a run into ingestion_runs.
func (l *Ledger) RecordRun(ctx context.Context, s domain.RunSummary) error {
	row := IngestionRunRowFromSummary(s)

	q := l.client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id, variant, started_ts, finished_ts, status,
			documents, failed_documents, records, filtered,
			duplicates, wide_rows, long_rows
		)
		VALUES (
			@run_id, @variant, @started_ts, @finished_ts, @status,
			@documents, @failed_documents, @records, @filtered,
			@duplicates, @wide_rows, @long_rows
		)
	`, l.dataset, ingestionRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: row.RunID},
		{Name: "variant", Value: row.Variant},
		{Name: "started_ts", Value: row.StartedTS},
		{Name: "finished_ts", Value: row.FinishedTS},
		{Name: "status", Value: row.Status},
		{Name: "documents", Value: row.Documents},
		{Name: "failed_documents", Value: row.FailedDocuments},
		{Name: "records", Value: row.Records},
		{Name: "filtered", Value: row.Filtered},
		{Name: "duplicates", Value: row.Duplicates},
		{Name: "wide_rows", Value: row.WideRows},
		{Name: "long_rows", Value: row.LongRows},
	}

	return runDML(ctx, q, "RecordRun")
}

// IngestionRunRowFromSummary maps a run summary to its ledger row.
func IngestionRunRowFromSummary(s domain.RunSummary) *IngestionRunRow {
	row := &IngestionRunRow{
		RunID:           s.RunID,
		Variant:         s.Variant,
		StartedTS:       s.StartedAt,
		Status:          s.Status(),
		Documents:       int64(s.Documents),
		FailedDocuments: int64(s.FailedDocuments),
		Records:         int64(s.Records),
		Filtered:        int64(s.Filtered),
		Duplicates:      int64(s.Duplicates),
		WideRows:        int64(s.WideRows),
		LongRows:        int64(s.LongRows),
	}
	if !s.FinishedAt.IsZero() {
		row.FinishedTS = bigquery.NullTimestamp{Timestamp: s.FinishedAt, Valid: true}
	}
	return row
}

func runDML(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running insert query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

func nullInt(v int64) bigquery.NullInt64 {
	return bigquery.NullInt64{Int64: v, Valid: v > 0}
}
