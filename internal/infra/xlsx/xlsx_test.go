package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

func TestWorkbook_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.xlsx")

	svc, err := Open(path)
	require.NoError(t, err)

	long, err := svc.EnsureTable(ctx, tables.Spec{Name: "Expenses Long", Columns: domain.LongColumns})
	require.NoError(t, err)

	require.NoError(t, long.AppendRow(ctx, []interface{}{"J Smith", "12 Oak St", "2024-03", "Hydro", 80.25}))
	require.NoError(t, long.AppendRows(ctx, [][]interface{}{
		{"J Smith", "12 Oak St", "2024-03", "Plumbing", 120.0},
	}))
	require.NoError(t, svc.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	long, err = reopened.EnsureTable(ctx, tables.Spec{Name: "Expenses Long", Columns: domain.LongColumns})
	require.NoError(t, err)
	assert.Equal(t, domain.Headers(domain.LongColumns), long.Headers())

	rows, err := long.ReadAllRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"J Smith", "12 Oak St", "2024-03", "Hydro", "80.25"},
		{"J Smith", "12 Oak St", "2024-03", "Plumbing", "120"},
	}, rows)
}

func TestEnsureTable_ForceHeadersOnDefaultSheet(t *testing.T) {
	ctx := context.Background()
	svc, err := Open(filepath.Join(t.TempDir(), "ledger.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	wide, err := svc.EnsureTable(ctx, tables.Spec{Name: "Sheet1", Columns: domain.WideColumns, ForceHeaders: true})
	require.NoError(t, err)
	assert.Len(t, wide.Headers(), 27)

	rows, err := wide.ReadAllRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
