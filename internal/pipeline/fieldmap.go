package pipeline

import (
	"sort"
	"strings"

	"github.com/dvloznov/owner-statements/internal/domain"
)

// FieldRule maps one raw extraction label to a canonical column. A rule with
// an empty Canonical name drops the field.
type FieldRule struct {
	Raw       string
	Canonical string
}

// StatementFieldRules is the rename table for owner statement labels.
var StatementFieldRules = []FieldRule{
	{"Owner Name", domain.ColOwner},
	{"Left Corner Address and Postal Code", domain.ColPostalCode},
	{"Statement Period", domain.ColStatementPeriod},
	{"Statement Date", ""},
	{"Address", domain.ColPropertyAddress},
	{"Rent Income", domain.ColRent},
	{"NSF Fee Income", domain.ColNSFIncome},
	{"Maintenance Income", domain.ColMaintenance},
	{"Total Income", domain.ColIncomeTotal},
	{"6800 - Common Area Repairs - 6865 - General Repairs/Maintenance", domain.ColGeneralRepairs},
	{"6910 - Unit Repairs and Maintenance - Appliance Repair - 6915", domain.ColApplianceRepair},
	{"6700 - Billable Operating Expenses - 6710 - Advertising", domain.ColAdvertising},
	{"6700 - Billable Operating Expenses - 6728 - Lease Up Expense", domain.ColLeaseUpBillable},
	{"6800 - Common Area Repairs - 6890 - Plumbing Repairs", domain.ColPlumbing},
	{"Condo Fees", domain.ColCondoFees},
	{"General Office Expenses - 6500 - 6585 - Management Fee Expense", domain.ColMgmtFee},
	{"6800 - Common Area Repairs - 6860 Garbage/Large Item Removal", domain.ColGarbageRemoval},
	{"6740 - Occupancy Costs - 6760 - Hydro", domain.ColHydro},
	{"6700 - Billable Operating Expenses - 6727", domain.ColOtherBillable},
	{"6800 - Common Area Repairs - 6835 Electrical Repair", domain.ColElectrical},
	{"6700 - Non Billable Operating Expenses 6727 - Credit Check", domain.ColCreditCheckNB},
	{"6700 - Non Billable Operating Expenses 6728 - Lease Up Expense", domain.ColLeaseUpNB},
	{"6910 - Unit Repairs and Maintenance - Unit Cleaning - 6950", domain.ColUnitCleaning},
	{"NSF Fee (Expense)", domain.ColNSFExpense},
	{"Total Expenses", domain.ColExpenses},
	{"Net Income", domain.ColNet},
}

// FieldMapper renames raw extraction labels to canonical column names and
// discards everything else.
type FieldMapper struct {
	rules   map[string]string // folded raw label -> canonical ("" drops)
	columns map[string]string // folded canonical name -> canonical
}

// NewFieldMapper builds a mapper over the given rules. Canonical column names
// of columns are accepted as-is when no rule claims them.
func NewFieldMapper(rules []FieldRule, columns []domain.Column) *FieldMapper {
	m := &FieldMapper{
		rules:   make(map[string]string, len(rules)),
		columns: make(map[string]string, len(columns)),
	}
	for _, r := range rules {
		m.rules[foldLabel(r.Raw)] = r.Canonical
	}
	for _, c := range columns {
		m.columns[foldLabel(c.Name)] = c.Name
	}
	return m
}

// Map returns the record restricted to canonical names. Explicit rules win
// over canonical pass-through names when both are present.
func (m *FieldMapper) Map(raw domain.RawRecord) map[string]interface{} {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(raw))
	explicit := make(map[string]bool, len(raw))

	for _, k := range keys {
		folded := foldLabel(k)
		if canonical, ok := m.rules[folded]; ok {
			if canonical == "" {
				continue
			}
			if _, seen := m.columns[foldLabel(canonical)]; !seen {
				continue
			}
			out[canonical] = raw[k]
			explicit[canonical] = true
		}
	}

	for _, k := range keys {
		folded := foldLabel(k)
		if _, ok := m.rules[folded]; ok {
			continue
		}
		canonical, ok := m.columns[folded]
		if !ok || explicit[canonical] {
			continue
		}
		if _, taken := out[canonical]; taken {
			continue
		}
		out[canonical] = raw[k]
	}

	return out
}

var dashReplacer = strings.NewReplacer("–", "-", "—", "-", "−", "-")

// foldLabel makes label matching tolerant of dash style, case and spacing.
func foldLabel(s string) string {
	s = dashReplacer.Replace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
