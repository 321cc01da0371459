package pipeline

import (
	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// StatementSchema writes owner statements to a wide table and fans expenses
// out to a long table.
type StatementSchema struct {
	wide       string
	long       string
	normalizer *Normalizer
}

// NewStatementSchema returns the schema for the given table names.
func NewStatementSchema(wide, long string) *StatementSchema {
	return &StatementSchema{wide: wide, long: long, normalizer: NewNormalizer()}
}

func (s *StatementSchema) Variant() string { return VariantStatements }

// Primary forces the header row so a drifted sheet is corrected on every run.
func (s *StatementSchema) Primary() tables.Spec {
	return tables.Spec{Name: s.wide, Columns: domain.WideColumns, ForceHeaders: true}
}

func (s *StatementSchema) Secondary() (tables.Spec, bool) {
	if s.long == "" {
		return tables.Spec{}, false
	}
	return tables.Spec{Name: s.long, Columns: domain.LongColumns}, true
}

func (s *StatementSchema) KeyFunc(headers []string) KeyFunc[domain.DedupKey] {
	return StatementKeyFunc(headers)
}

func (s *StatementSchema) Normalize(records []domain.RawRecord, headers, secondary []string) ([]Candidate[domain.DedupKey], int) {
	var out []Candidate[domain.DedupKey]
	filtered := 0
	for _, raw := range records {
		row, keep := s.normalizer.Normalize(raw)
		if !keep {
			filtered++
			continue
		}
		c := Candidate[domain.DedupKey]{
			Key:     row.Key(),
			Label:   row.PropertyAddress,
			Primary: row.Project(headers),
		}
		for _, l := range row.LongRows() {
			c.Secondary = append(c.Secondary, projectCells(domain.LongColumns, l.Cells(), secondary))
		}
		out = append(out, c)
	}
	return out, filtered
}

// TaxSchema writes one row per property and year to the tax summary table.
type TaxSchema struct {
	table      string
	normalizer *TaxNormalizer
	defaults   TaxDefaults
}

// NewTaxSchema returns the schema for the given table name.
func NewTaxSchema(table string, defaults TaxDefaults) *TaxSchema {
	return &TaxSchema{table: table, normalizer: NewTaxNormalizer(), defaults: defaults}
}

func (s *TaxSchema) Variant() string { return VariantTax }

func (s *TaxSchema) Primary() tables.Spec {
	return tables.Spec{Name: s.table, Columns: domain.TaxColumns}
}

func (s *TaxSchema) Secondary() (tables.Spec, bool) { return tables.Spec{}, false }

func (s *TaxSchema) KeyFunc(headers []string) KeyFunc[domain.TaxKey] {
	return TaxKeyFunc(headers)
}

func (s *TaxSchema) Normalize(records []domain.RawRecord, headers, _ []string) ([]Candidate[domain.TaxKey], int) {
	rows := make([]*domain.TaxRow, 0, len(records))
	filtered := 0
	for _, raw := range records {
		row, ok := s.normalizer.Normalize(raw)
		if !ok {
			filtered++
			continue
		}
		rows = append(rows, row)
	}

	s.defaults.Apply(rows)

	out := make([]Candidate[domain.TaxKey], 0, len(rows))
	for _, row := range rows {
		out = append(out, Candidate[domain.TaxKey]{
			Key:     row.Key(),
			Label:   row.PropertyAddress + " " + row.Year,
			Primary: projectCells(domain.TaxColumns, row.Project(), headers),
		})
	}
	return out, filtered
}

// projectCells lays out cells, ordered as cols, under headers. Headers with
// no matching column get an empty cell.
func projectCells(cols []domain.Column, cells []interface{}, headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		if j := domain.IndexOf(cols, h); j >= 0 && j < len(cells) {
			out[i] = cells[j]
		} else {
			out[i] = ""
		}
	}
	return out
}
