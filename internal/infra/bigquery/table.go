package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// Table is a BigQuery-backed destination table.
type Table struct {
	client  *bigquery.Client
	dataset string
	ident   string
	spec    tables.Spec
	schema  bigquery.Schema
}

func (t *Table) Name() string { return t.spec.Name }

func (t *Table) Headers() []string { return t.spec.Headers() }

// ReadAllRows returns the spec columns of every row in insertion order.
func (t *Table) ReadAllRows(ctx context.Context) ([][]string, error) {
	q := t.client.Query(t.selectSQL())

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReadAllRows: running query on %s.%s: %w", t.dataset, t.ident, err)
	}

	var rows [][]string
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadAllRows: iterating %s.%s: %w", t.dataset, t.ident, err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = tables.FormatCell(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *Table) selectSQL() string {
	cols := make([]string, len(t.spec.Columns))
	for i, c := range t.spec.Columns {
		cols[i] = "`" + tables.Ident(c.Name) + "`"
	}
	return fmt.Sprintf("SELECT %s FROM `%s.%s` ORDER BY %s, %s",
		strings.Join(cols, ", "), t.dataset, t.ident, ingestedColumn, positionColumn)
}

// AppendRows streams rows into the table with one insert ID per row.
func (t *Table) AppendRows(ctx context.Context, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	savers := make([]*bigquery.ValuesSaver, len(rows))
	for i, r := range rows {
		savers[i] = &bigquery.ValuesSaver{
			Schema:   t.schema,
			InsertID: uuid.NewString(),
			Row:      RowValues(t.spec.Columns, r, now, i),
		}
	}

	inserter := t.client.Dataset(t.dataset).Table(t.ident).Inserter()
	if err := inserter.Put(ctx, savers); err != nil {
		return fmt.Errorf("AppendRows: inserting into %s.%s: %w", t.dataset, t.ident, err)
	}
	return nil
}

// AppendRow implements tables.Table.
func (t *Table) AppendRow(ctx context.Context, row []interface{}) error {
	return t.AppendRows(ctx, [][]interface{}{row})
}

// RowValues converts a projected row to BigQuery values in schema order.
// Missing trailing cells are stored as NULL.
func RowValues(cols []domain.Column, row []interface{}, ingested time.Time, position int) []bigquery.Value {
	out := make([]bigquery.Value, 0, len(cols)+2)
	for i, c := range cols {
		if i >= len(row) {
			out = append(out, nil)
			continue
		}
		if c.Kind == domain.KindNumber {
			out = append(out, tables.CellNumber(row[i]))
		} else {
			out = append(out, tables.FormatCell(row[i]))
		}
	}
	return append(out, ingested, int64(position))
}
