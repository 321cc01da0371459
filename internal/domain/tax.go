package domain

import "strings"

// Tax summary column names.
const (
	ColRollNumber        = "Roll Number"
	ColAssessmentValue   = "Assessment Value"
	ColYear              = "Year"
	ColTaxRateUsed       = "Tax Rate Used"
	ColPropertyTax       = "Property Tax"
	ColFirstHalfPayment  = "First Half Payment"
	ColSecondHalfPayment = "Second Half Payment"
	ColMonthlyPayment    = "Monthly Payment"
)

// TaxColumns is the header layout of the property tax summary table.
var TaxColumns = []Column{
	{ColPropertyAddress, KindText},
	{ColRollNumber, KindText},
	{ColAssessmentValue, KindNumber},
	{ColYear, KindText},
	{ColTaxRateUsed, KindNumber},
	{ColPropertyTax, KindNumber},
	{ColFirstHalfPayment, KindNumber},
	{ColSecondHalfPayment, KindNumber},
	{ColMonthlyPayment, KindNumber},
}

// TaxRow is one property-year of an assessment and tax levy notice.
// TaxRateUsed is a percentage (1.478321 means 1.478321%).
type TaxRow struct {
	PropertyAddress   string
	RollNumber        string
	AssessmentValue   float64
	Year              string
	TaxRateUsed       float64
	PropertyTax       float64
	FirstHalfPayment  float64
	SecondHalfPayment float64
	MonthlyPayment    float64
}

// Number returns a pointer to the numeric field backing a tax column.
func (t *TaxRow) Number(col string) *float64 {
	switch col {
	case ColAssessmentValue:
		return &t.AssessmentValue
	case ColTaxRateUsed:
		return &t.TaxRateUsed
	case ColPropertyTax:
		return &t.PropertyTax
	case ColFirstHalfPayment:
		return &t.FirstHalfPayment
	case ColSecondHalfPayment:
		return &t.SecondHalfPayment
	case ColMonthlyPayment:
		return &t.MonthlyPayment
	}
	return nil
}

// Project lays the row out in TaxColumns order.
func (t *TaxRow) Project() []interface{} {
	return []interface{}{
		t.PropertyAddress,
		t.RollNumber,
		t.AssessmentValue,
		t.Year,
		t.TaxRateUsed,
		t.PropertyTax,
		t.FirstHalfPayment,
		t.SecondHalfPayment,
		t.MonthlyPayment,
	}
}

// Key returns the dedup identity of the row.
func (t *TaxRow) Key() TaxKey {
	return NewTaxKey(t.PropertyAddress, t.Year)
}

// TaxKey identifies a row in the tax summary table.
type TaxKey struct {
	PropertyAddress string
	Year            string
}

// NewTaxKey builds a key from whitespace-trimmed parts.
func NewTaxKey(address, year string) TaxKey {
	return TaxKey{
		PropertyAddress: strings.TrimSpace(address),
		Year:            strings.TrimSpace(year),
	}
}
