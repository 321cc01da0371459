package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/owner-statements/internal/domain"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()

	row, keep := n.Normalize(domain.RawRecord{
		"Owner Name":                          "J Smith",
		"Left Corner Address and Postal Code": "123 Main St\nKingston, ON K7L 3N6",
		"Statement Period":                    "2024-03-01 to 2024-03-31",
		"Statement Date":                      "2024-04-02",
		"Address":                             "12  oak st.",
		"Rent Income":                         "$1,500.00",
		"6700 - Billable Operating Expenses - 6710 - Advertising": "$1,200.00",
		"6800 - Common Area Repairs - 6890 - Plumbing Repairs":    "0",
		"Total Expenses": json.Number("1200"),
		"Net Income":     "garbage",
		"Unexpected":     []interface{}{1, 2},
	})

	require.True(t, keep)
	assert.Equal(t, "J Smith", row.Owner)
	assert.Equal(t, "K7L 3N6", row.PostalCode)
	assert.Equal(t, "12 Oak St", row.PropertyAddress)
	assert.Equal(t, "March", row.PeriodMonth)
	assert.Equal(t, "2024", row.PeriodYear)
	assert.Equal(t, 1500.0, row.Rent)
	assert.Equal(t, 1200.0, row.Advertising)
	assert.Equal(t, 0.0, row.Plumbing)
	assert.Equal(t, 1200.0, row.Expenses)
	assert.Equal(t, 0.0, row.Net)

	long := row.LongRows()
	require.Len(t, long, 1)
	assert.Equal(t, domain.ColAdvertising, long[0].Category)
	assert.Equal(t, 1200.0, long[0].Amount)
}

func TestNormalizer_FiltersAllProperties(t *testing.T) {
	n := NewNormalizer()

	for _, addr := range []string{"All Properties", "ALL PROPERTIES", "  all properties "} {
		_, keep := n.Normalize(domain.RawRecord{"Address": addr, "Owner Name": "J Smith"})
		assert.False(t, keep, addr)
	}
}

func TestNormalizer_IsTotal(t *testing.T) {
	n := NewNormalizer()

	inputs := []domain.RawRecord{
		nil,
		{},
		{"Address": nil, "Owner Name": 42.0, "Statement Period": true},
		{"Rent Income": map[string]interface{}{"nested": "x"}},
		{"": "", "Total Income": "1e999"},
		{"Total Income": "1e999999999"},
		{"Total Income": "1e-999999999"},
		{"Total Income": json.Number("-4.2e2147483647")},
	}

	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			row, keep := n.Normalize(raw)
			require.NotNil(t, row)
			assert.True(t, keep)
			assert.Equal(t, 0.0, row.Rent)
			assert.Equal(t, 0.0, row.IncomeTotal)
		})
	}
}

func TestNormalizer_MissingIdentityFieldsAreEmpty(t *testing.T) {
	row, keep := NewNormalizer().Normalize(domain.RawRecord{"Rent Income": "10"})
	require.True(t, keep)
	assert.Equal(t, "", row.Owner)
	assert.Equal(t, "", row.StatementPeriod)
	assert.Equal(t, "", row.PropertyAddress)
	assert.Equal(t, "", row.PostalCode)
	assert.Equal(t, 10.0, row.Rent)
}
