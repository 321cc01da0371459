package domain

import "strings"

// RawRecord is one untyped field-name to value mapping produced by the
// extraction model for a single property column or statement. Values are
// whatever JSON decoding produced: string, float64, json.Number, bool or nil.
type RawRecord map[string]interface{}

// CanonicalRow is the fully typed row stored in the wide table.
type CanonicalRow struct {
	Owner           string
	PostalCode      string
	StatementPeriod string // raw form preserved
	PropertyAddress string // normalized

	// PeriodMonth and PeriodYear are empty when the statement period
	// carries no YYYY-MM-DD fragment.
	PeriodMonth string
	PeriodYear  string

	Rent        float64
	NSFIncome   float64
	Maintenance float64
	IncomeTotal float64

	GeneralRepairs  float64
	ApplianceRepair float64
	Advertising     float64
	LeaseUpBillable float64
	Plumbing        float64
	CondoFees       float64
	MgmtFee         float64
	GarbageRemoval  float64
	Hydro           float64
	OtherBillable   float64
	Electrical      float64
	CreditCheckNB   float64
	LeaseUpNB       float64
	UnitCleaning    float64
	NSFExpense      float64

	Expenses float64
	Net      float64
}

// Number returns a pointer to the numeric field backing a canonical column,
// or nil when the column is not numeric.
func (r *CanonicalRow) Number(col string) *float64 {
	switch col {
	case ColRent:
		return &r.Rent
	case ColNSFIncome:
		return &r.NSFIncome
	case ColMaintenance:
		return &r.Maintenance
	case ColIncomeTotal:
		return &r.IncomeTotal
	case ColGeneralRepairs:
		return &r.GeneralRepairs
	case ColApplianceRepair:
		return &r.ApplianceRepair
	case ColAdvertising:
		return &r.Advertising
	case ColLeaseUpBillable:
		return &r.LeaseUpBillable
	case ColPlumbing:
		return &r.Plumbing
	case ColCondoFees:
		return &r.CondoFees
	case ColMgmtFee:
		return &r.MgmtFee
	case ColGarbageRemoval:
		return &r.GarbageRemoval
	case ColHydro:
		return &r.Hydro
	case ColOtherBillable:
		return &r.OtherBillable
	case ColElectrical:
		return &r.Electrical
	case ColCreditCheckNB:
		return &r.CreditCheckNB
	case ColLeaseUpNB:
		return &r.LeaseUpNB
	case ColUnitCleaning:
		return &r.UnitCleaning
	case ColNSFExpense:
		return &r.NSFExpense
	case ColExpenses:
		return &r.Expenses
	case ColNet:
		return &r.Net
	}
	return nil
}

// Text returns the string field backing a canonical text column.
func (r *CanonicalRow) Text(col string) (string, bool) {
	switch col {
	case ColOwner:
		return r.Owner, true
	case ColPostalCode:
		return r.PostalCode, true
	case ColStatementPeriod:
		return r.StatementPeriod, true
	case ColPropertyAddress:
		return r.PropertyAddress, true
	case ColPeriodMonth:
		return r.PeriodMonth, true
	case ColPeriodYear:
		return r.PeriodYear, true
	}
	return "", false
}

// Project lays the row out in the given header order. Headers the row does
// not know about are written as "0".
func (r *CanonicalRow) Project(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		if s, ok := r.Text(h); ok {
			out[i] = s
			continue
		}
		if f := r.Number(h); f != nil {
			out[i] = *f
			continue
		}
		out[i] = "0"
	}
	return out
}

// Key returns the dedup identity of the row.
func (r *CanonicalRow) Key() DedupKey {
	return NewDedupKey(r.Owner, r.StatementPeriod, r.PropertyAddress)
}

// DedupKey identifies a statement row in the wide table.
type DedupKey struct {
	Owner           string
	StatementPeriod string
	PropertyAddress string
}

// NewDedupKey builds a key from whitespace-trimmed parts.
func NewDedupKey(owner, period, address string) DedupKey {
	return DedupKey{
		Owner:           strings.TrimSpace(owner),
		StatementPeriod: strings.TrimSpace(period),
		PropertyAddress: strings.TrimSpace(address),
	}
}

// LongRow is one non-zero expense fact derived from a CanonicalRow.
type LongRow struct {
	Owner           string
	PropertyAddress string
	StatementPeriod string
	Category        string
	Amount          float64
}

// Cells returns the row in LongColumns order.
func (l LongRow) Cells() []interface{} {
	return []interface{}{l.Owner, l.PropertyAddress, l.StatementPeriod, l.Category, l.Amount}
}

// LongRows fans the row out into one LongRow per non-zero expense category.
func (r *CanonicalRow) LongRows() []LongRow {
	var out []LongRow
	for _, col := range ExpenseCategories {
		v := *r.Number(col)
		if v == 0 {
			continue
		}
		out = append(out, LongRow{
			Owner:           r.Owner,
			PropertyAddress: r.PropertyAddress,
			StatementPeriod: r.StatementPeriod,
			Category:        col,
			Amount:          v,
		})
	}
	return out
}
