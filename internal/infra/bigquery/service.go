package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// Columns appended to every destination table to keep read order stable.
const (
	ingestedColumn = "ingested_ts"
	positionColumn = "batch_position"
)

// Service is the BigQuery implementation of tables.Service. It holds a
// shared client so every table handle reuses one connection.
type Service struct {
	client  *bigquery.Client
	dataset string
}

// NewService creates a client for project and uses dataset for all tables.
func NewService(ctx context.Context, project, dataset string, opts ...option.ClientOption) (*Service, error) {
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewService: creating client: %w", err)
	}
	return NewServiceWithClient(client, dataset), nil
}

// NewServiceWithClient wraps an existing client.
func NewServiceWithClient(client *bigquery.Client, dataset string) *Service {
	return &Service{client: client, dataset: dataset}
}

// Client returns the shared client.
func (s *Service) Client() *bigquery.Client {
	return s.client
}

// Close closes the BigQuery client connection.
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// EnsureTable implements tables.Service. Missing tables are created from the
// spec. With ForceHeaders, columns absent from an existing table are added;
// BigQuery cannot drop or reorder columns in place.
func (s *Service) EnsureTable(ctx context.Context, spec tables.Spec) (tables.Table, error) {
	ident := tables.Ident(spec.Name)
	ref := s.client.Dataset(s.dataset).Table(ident)
	schema := SchemaFor(spec)

	md, err := ref.Metadata(ctx)
	switch {
	case isNotFound(err):
		if err := ref.Create(ctx, &bigquery.TableMetadata{Name: ident, Schema: schema}); err != nil {
			return nil, fmt.Errorf("EnsureTable: creating %s.%s: %w", s.dataset, ident, err)
		}
	case err != nil:
		return nil, fmt.Errorf("EnsureTable: reading metadata for %s.%s: %w", s.dataset, ident, err)
	case spec.ForceHeaders:
		if merged, changed := mergeSchema(md.Schema, schema); changed {
			update := bigquery.TableMetadataToUpdate{Schema: merged}
			if _, err := ref.Update(ctx, update, md.ETag); err != nil {
				return nil, fmt.Errorf("EnsureTable: updating schema of %s.%s: %w", s.dataset, ident, err)
			}
		}
	}

	return &Table{
		client:  s.client,
		dataset: s.dataset,
		ident:   ident,
		spec:    spec,
		schema:  schema,
	}, nil
}

// SchemaFor maps a table spec to a BigQuery schema. Column names are the
// snake_case form of the headers.
func SchemaFor(spec tables.Spec) bigquery.Schema {
	schema := make(bigquery.Schema, 0, len(spec.Columns)+2)
	for _, c := range spec.Columns {
		typ := bigquery.StringFieldType
		if c.Kind == domain.KindNumber {
			typ = bigquery.FloatFieldType
		}
		schema = append(schema, &bigquery.FieldSchema{
			Name:        tables.Ident(c.Name),
			Type:        typ,
			Description: c.Name,
		})
	}
	schema = append(schema,
		&bigquery.FieldSchema{Name: ingestedColumn, Type: bigquery.TimestampFieldType},
		&bigquery.FieldSchema{Name: positionColumn, Type: bigquery.IntegerFieldType},
	)
	return schema
}

// mergeSchema appends fields of want missing from have.
func mergeSchema(have, want bigquery.Schema) (bigquery.Schema, bool) {
	seen := make(map[string]bool, len(have))
	for _, f := range have {
		seen[f.Name] = true
	}
	merged := append(bigquery.Schema{}, have...)
	changed := false
	for _, f := range want {
		if !seen[f.Name] {
			merged = append(merged, f)
			changed = true
		}
	}
	return merged, changed
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
