package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

func TestService_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	svc := NewService()

	tbl, err := svc.EnsureTable(ctx, tables.Spec{Name: "Expenses Long", Columns: domain.LongColumns})
	require.NoError(t, err)
	assert.Equal(t, domain.Headers(domain.LongColumns), tbl.Headers())

	require.NoError(t, tbl.AppendRow(ctx, []interface{}{"J Smith", "12 Oak St", "2024-03", "Hydro", 80.25}))
	require.NoError(t, tbl.AppendRows(ctx, [][]interface{}{
		{"J Smith", "12 Oak St", "2024-03", "Plumbing", 120.0},
	}))

	rows, err := tbl.ReadAllRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"J Smith", "12 Oak St", "2024-03", "Hydro", "80.25"},
		{"J Smith", "12 Oak St", "2024-03", "Plumbing", "120"},
	}, rows)

	again, err := svc.EnsureTable(ctx, tables.Spec{Name: "Expenses Long", Columns: domain.LongColumns})
	require.NoError(t, err)
	assert.Same(t, tbl, again)
}

func TestShadow_SeedsFromUpstreamAndKeepsWritesLocal(t *testing.T) {
	ctx := context.Background()
	upstream := NewService()
	spec := tables.Spec{Name: "Property Tax Summary", Columns: domain.TaxColumns}

	up, err := upstream.EnsureTable(ctx, spec)
	require.NoError(t, err)
	require.NoError(t, up.AppendRow(ctx, []interface{}{"12 Oak St", "R1", 400000.0, "2024", 1.478321, 5913.28, 0.0, 0.0, 0.0}))

	shadow := NewShadow(upstream)
	tbl, err := shadow.EnsureTable(ctx, spec)
	require.NoError(t, err)

	rows, err := tbl.ReadAllRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12 Oak St", rows[0][0])

	require.NoError(t, tbl.AppendRow(ctx, []interface{}{"14 Oak St", "R2", 0.0, "2024", 0.0, 0.0, 0.0, 0.0, 0.0}))
	assert.Len(t, upstream.Table(spec.Name).Rows(), 1)
	assert.Len(t, shadow.Table(spec.Name).Rows(), 2)
}
