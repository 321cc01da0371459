package pipeline

import (
	"github.com/dvloznov/owner-statements/internal/domain"
)

// Normalizer converts raw extraction records into canonical wide rows. It is
// total: any record yields either a row or a filtered result, never an error.
type Normalizer struct {
	mapper  *FieldMapper
	coercer ValueCoercer
	derive  DerivedFieldExtractor
	filter  RecordFilter
}

// NewNormalizer returns a Normalizer for owner statements.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		mapper:  NewFieldMapper(StatementFieldRules, domain.WideColumns),
		coercer: NewValueCoercer("$", ","),
	}
}

// Normalize returns the canonical row for raw and whether it should be kept.
func (n *Normalizer) Normalize(raw domain.RawRecord) (*domain.CanonicalRow, bool) {
	mapped := n.mapper.Map(raw)
	row := &domain.CanonicalRow{}

	for col, v := range mapped {
		if f := row.Number(col); f != nil {
			*f = n.coercer.Number(v)
		}
	}

	row.Owner = n.coercer.Text(mapped[domain.ColOwner])
	row.StatementPeriod = n.coercer.Text(mapped[domain.ColStatementPeriod])
	row.PostalCode = n.derive.PostalCode(n.coercer.Text(mapped[domain.ColPostalCode]))
	row.PropertyAddress = n.derive.NormalizeAddress(n.coercer.Text(mapped[domain.ColPropertyAddress]))
	row.PeriodMonth, row.PeriodYear = n.derive.Period(row.StatementPeriod)

	return row, n.filter.Keep(row)
}
