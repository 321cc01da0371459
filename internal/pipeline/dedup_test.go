package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/infra/memory"
	"github.com/dvloznov/owner-statements/internal/tables"
)

func TestIndex_ContainsAdd(t *testing.T) {
	ix := NewIndex[domain.DedupKey]()
	key := domain.NewDedupKey("J Smith", "2024-03", "12 Oak St")

	assert.False(t, ix.Contains(key))
	ix.Add(key)
	assert.True(t, ix.Contains(key))
	assert.True(t, ix.Contains(domain.NewDedupKey(" J Smith", "2024-03 ", "12 Oak St")))
	assert.Equal(t, 1, ix.Len())
}

func TestBuildIndex_Statements(t *testing.T) {
	ctx := context.Background()
	svc := memory.NewService()
	tbl, err := svc.EnsureTable(ctx, tables.Spec{Name: DefaultWideTable, Columns: domain.WideColumns})
	require.NoError(t, err)

	existing := &domain.CanonicalRow{
		Owner:           "J Smith ",
		StatementPeriod: "2024-03-01 to 2024-03-31",
		PropertyAddress: "12 oak st.",
	}
	require.NoError(t, tbl.AppendRows(ctx, [][]interface{}{
		existing.Project(tbl.Headers()),
		{"short", "row"},
	}))

	ix, err := BuildIndex(ctx, tbl, StatementKeyFunc(tbl.Headers()))
	require.NoError(t, err)

	assert.Equal(t, 1, ix.Len())
	assert.True(t, ix.Contains(domain.NewDedupKey("J Smith", "2024-03-01 to 2024-03-31", "12 Oak St")))
}

func TestBuildIndex_Tax(t *testing.T) {
	ctx := context.Background()
	svc := memory.NewService()
	tbl, err := svc.EnsureTable(ctx, tables.Spec{Name: DefaultTaxTable, Columns: domain.TaxColumns})
	require.NoError(t, err)

	row := &domain.TaxRow{PropertyAddress: "12 Oak St ", Year: "2024"}
	require.NoError(t, tbl.AppendRow(ctx, row.Project()))

	ix, err := BuildIndex(ctx, tbl, TaxKeyFunc(tbl.Headers()))
	require.NoError(t, err)
	assert.True(t, ix.Contains(domain.TaxKey{PropertyAddress: "12 Oak St", Year: "2024"}))
}

type brokenTable struct{ tables.Table }

func (brokenTable) Name() string { return "broken" }

func (brokenTable) ReadAllRows(context.Context) ([][]string, error) {
	return nil, errors.New("quota exceeded")
}

func TestBuildIndex_ReadError(t *testing.T) {
	_, err := BuildIndex(context.Background(), brokenTable{}, TaxKeyFunc(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestStatementKeyFunc_MissingHeaders(t *testing.T) {
	keyOf := StatementKeyFunc([]string{"Owner", "Rent"})
	_, ok := keyOf([]string{"J Smith", "100"})
	assert.False(t, ok)
}
