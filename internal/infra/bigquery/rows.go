package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

type IngestionRunRow struct {
	RunID   string `bigquery:"run_id"`  // REQUIRED
	Variant string `bigquery:"variant"` // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status string `bigquery:"status"` // SUCCESS, PARTIAL or FAILED

	Documents       int64 `bigquery:"documents"`
	FailedDocuments int64 `bigquery:"failed_documents"`
	Records         int64 `bigquery:"records"`
	Filtered        int64 `bigquery:"filtered"`
	Duplicates      int64 `bigquery:"duplicates"`
	WideRows        int64 `bigquery:"wide_rows"`
	LongRows        int64 `bigquery:"long_rows"`
}

type ModelOutputRow struct {
	OutputID    string `bigquery:"output_id"`    // REQUIRED
	RunID       string `bigquery:"run_id"`       // REQUIRED
	DocumentURI string `bigquery:"document_uri"` // REQUIRED

	ModelName string `bigquery:"model_name"` // REQUIRED
	// RawText is the model response as returned; it is not always valid JSON.
	RawText string `bigquery:"raw_text"`

	TokensInput  bigquery.NullInt64 `bigquery:"tokens_input"`  // NULLABLE
	TokensOutput bigquery.NullInt64 `bigquery:"tokens_output"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}
