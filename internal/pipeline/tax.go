package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/owner-statements/internal/domain"
)

// TaxFieldRules maps the label variants seen in tax notice extractions.
// Canonical tax column names pass through without a rule.
var TaxFieldRules = []FieldRule{
	{"Address", domain.ColPropertyAddress},
	{"Roll", domain.ColRollNumber},
	{"Roll #", domain.ColRollNumber},
	{"Roll No", domain.ColRollNumber},
	{"Assessment", domain.ColAssessmentValue},
	{"Tax Year", domain.ColYear},
	{"Tax Rate", domain.ColTaxRateUsed},
	{"Total Tax", domain.ColPropertyTax},
	{"Interim Payment", domain.ColFirstHalfPayment},
	{"Final Payment", domain.ColSecondHalfPayment},
}

// TaxNormalizer converts raw tax notice records into TaxRows.
type TaxNormalizer struct {
	mapper  *FieldMapper
	coercer ValueCoercer
}

// NewTaxNormalizer returns a TaxNormalizer.
func NewTaxNormalizer() *TaxNormalizer {
	return &TaxNormalizer{
		mapper:  NewFieldMapper(TaxFieldRules, domain.TaxColumns),
		coercer: NewValueCoercer("$", ",", "%"),
	}
}

// Normalize returns the row for raw. ok is false when the record has no
// property address or year and so cannot be keyed.
func (n *TaxNormalizer) Normalize(raw domain.RawRecord) (*domain.TaxRow, bool) {
	mapped := n.mapper.Map(raw)
	row := &domain.TaxRow{
		PropertyAddress: strings.TrimSpace(n.coercer.Text(mapped[domain.ColPropertyAddress])),
		RollNumber:      strings.TrimSpace(n.coercer.Text(mapped[domain.ColRollNumber])),
		Year:            strings.TrimSpace(n.coercer.Text(mapped[domain.ColYear])),
	}
	for col, v := range mapped {
		if f := row.Number(col); f != nil {
			*f = n.coercer.Number(v)
		}
	}
	if row.PropertyAddress == "" || row.Year == "" {
		return row, false
	}
	return row, true
}

// TaxDefaults fills tax fields the notice left blank using municipal billing
// rules. Rates are percentages keyed by year.
type TaxDefaults struct {
	Rates map[int]decimal.Decimal

	// NoFinalBillYears have no final bill yet; their second half is 0.
	NoFinalBillYears map[int]bool
}

// KingstonTaxDefaults returns the City of Kingston residential rates.
func KingstonTaxDefaults() TaxDefaults {
	return TaxDefaults{
		Rates: map[int]decimal.Decimal{
			2020: decimal.RequireFromString("1.309528"),
			2021: decimal.RequireFromString("1.365454"),
			2022: decimal.RequireFromString("1.399366"),
			2023: decimal.RequireFromString("1.444608"),
			2024: decimal.RequireFromString("1.478321"),
			2025: decimal.RequireFromString("1.556"),
		},
		NoFinalBillYears: map[int]bool{2025: true},
	}
}

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	half    = decimal.RequireFromString("0.5")
)

// Apply fills zero-valued fields of rows in place. Rows are grouped by
// property so a first half can be derived from the previous year's tax.
func (d TaxDefaults) Apply(rows []*domain.TaxRow) {
	groups := make(map[string][]*domain.TaxRow)
	var order []string
	for _, r := range rows {
		addr := strings.TrimSpace(r.PropertyAddress)
		if _, ok := groups[addr]; !ok {
			order = append(order, addr)
		}
		groups[addr] = append(groups[addr], r)
	}

	for _, addr := range order {
		group := groups[addr]
		sort.SliceStable(group, func(i, j int) bool {
			return yearOf(group[i]) < yearOf(group[j])
		})

		taxByYear := make(map[int]decimal.Decimal)
		for i, r := range group {
			year := yearOf(r)
			d.fill(r, year, i == 0, taxByYear)
			if year > 0 {
				taxByYear[year] = decimal.NewFromFloat(r.PropertyTax)
			}
		}
	}
}

func (d TaxDefaults) fill(r *domain.TaxRow, year int, earliest bool, taxByYear map[int]decimal.Decimal) {
	assessment := decimal.NewFromFloat(r.AssessmentValue)

	if r.TaxRateUsed == 0 {
		if rate, ok := d.Rates[year]; ok {
			r.TaxRateUsed = rate.InexactFloat64()
		}
	}
	rate := decimal.NewFromFloat(r.TaxRateUsed)

	if r.PropertyTax == 0 && !assessment.IsZero() && !rate.IsZero() {
		r.PropertyTax = money(assessment.Mul(rate).Div(hundred))
	}
	tax := decimal.NewFromFloat(r.PropertyTax)

	if r.FirstHalfPayment == 0 {
		if prev, ok := taxByYear[year-1]; ok && !prev.IsZero() {
			r.FirstHalfPayment = money(prev.Mul(half))
		} else if prevRate, ok := d.Rates[year-1]; ok && earliest && !assessment.IsZero() {
			r.FirstHalfPayment = money(assessment.Mul(prevRate).Div(hundred).Mul(half))
		}
	}

	if r.SecondHalfPayment == 0 && !d.NoFinalBillYears[year] && !tax.IsZero() {
		r.SecondHalfPayment = money(tax.Sub(decimal.NewFromFloat(r.FirstHalfPayment)))
	}

	if r.MonthlyPayment == 0 && !tax.IsZero() {
		r.MonthlyPayment = money(tax.Div(twelve))
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func yearOf(r *domain.TaxRow) int {
	y, err := strconv.Atoi(strings.TrimSpace(r.Year))
	if err != nil {
		return 0
	}
	return y
}
