package bigquery

import (
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

func TestSchemaFor(t *testing.T) {
	schema := SchemaFor(tables.Spec{Name: "Expenses Long", Columns: domain.LongColumns})

	require.Len(t, schema, len(domain.LongColumns)+2)
	assert.Equal(t, "owner", schema[0].Name)
	assert.Equal(t, bigquery.StringFieldType, schema[0].Type)
	assert.Equal(t, "expense_category", schema[3].Name)
	assert.Equal(t, "amount", schema[4].Name)
	assert.Equal(t, bigquery.FloatFieldType, schema[4].Type)
	assert.Equal(t, ingestedColumn, schema[5].Name)
	assert.Equal(t, positionColumn, schema[6].Name)
}

func TestMergeSchema(t *testing.T) {
	have := bigquery.Schema{
		{Name: "owner", Type: bigquery.StringFieldType},
		{Name: "legacy", Type: bigquery.StringFieldType},
	}
	want := SchemaFor(tables.Spec{Columns: []domain.Column{
		{Name: domain.ColOwner, Kind: domain.KindText},
		{Name: domain.ColRent, Kind: domain.KindNumber},
	}})

	merged, changed := mergeSchema(have, want)
	require.True(t, changed)
	names := make([]string, len(merged))
	for i, f := range merged {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"owner", "legacy", "rent", ingestedColumn, positionColumn}, names)

	_, changed = mergeSchema(merged, want)
	assert.False(t, changed)
}

func TestRowValues(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	cols := []domain.Column{
		{Name: domain.ColOwner, Kind: domain.KindText},
		{Name: domain.ColRent, Kind: domain.KindNumber},
		{Name: domain.ColNet, Kind: domain.KindNumber},
		{Name: domain.ColPeriodYear, Kind: domain.KindText},
	}

	got := RowValues(cols, []interface{}{"J Smith", 1500.0, "0"}, now, 3)
	assert.Equal(t, []bigquery.Value{"J Smith", 1500.0, 0.0, nil, now, int64(3)}, got)
}

func TestSelectSQL(t *testing.T) {
	tbl := &Table{
		dataset: "statements",
		ident:   "expenses_long",
		spec:    tables.Spec{Name: "Expenses Long", Columns: domain.LongColumns},
	}
	assert.Equal(t,
		"SELECT `owner`, `property_address`, `statement_period`, `expense_category`, `amount` FROM `statements.expenses_long` ORDER BY ingested_ts, batch_position",
		tbl.selectSQL(),
	)
}

func TestIngestionRunRowFromSummary(t *testing.T) {
	started := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	row := IngestionRunRowFromSummary(domain.RunSummary{
		RunID:           "run-1",
		Variant:         "STATEMENTS",
		StartedAt:       started,
		FinishedAt:      started.Add(time.Minute),
		Documents:       3,
		FailedDocuments: 1,
		WideRows:        4,
	})

	assert.Equal(t, "PARTIAL", row.Status)
	assert.Equal(t, int64(3), row.Documents)
	assert.Equal(t, int64(4), row.WideRows)
	assert.True(t, row.FinishedTS.Valid)
	assert.Equal(t, started.Add(time.Minute), row.FinishedTS.Timestamp)
}
