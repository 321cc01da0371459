package domain

// ColumnKind tells typed backends how to store a column.
type ColumnKind int

const (
	// KindText columns hold strings.
	KindText ColumnKind = iota
	// KindNumber columns hold float64 values.
	KindNumber
)

// Column is one header of a destination table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Canonical column names for the wide owner-statement table.
const (
	ColOwner           = "Owner"
	ColPostalCode      = "Postal Code"
	ColStatementPeriod = "Statement Period"
	ColPropertyAddress = "Property Address"
	ColRent            = "Rent"
	ColNSFIncome       = "NSF Income"
	ColMaintenance     = "Maintenance"
	ColIncomeTotal     = "Income Total"
	ColGeneralRepairs  = "General Repairs"
	ColApplianceRepair = "Appliance Repair"
	ColAdvertising     = "Advertising"
	ColLeaseUpBillable = "Lease Up (Billable)"
	ColPlumbing        = "Plumbing"
	ColCondoFees       = "Condo Fees"
	ColMgmtFee         = "Mgmt Fee"
	ColGarbageRemoval  = "Garbage Removal"
	ColHydro           = "Hydro"
	ColOtherBillable   = "Other Billable"
	ColElectrical      = "Electrical"
	ColCreditCheckNB   = "Credit Check (NB)"
	ColLeaseUpNB       = "Lease Up (NB)"
	ColUnitCleaning    = "Unit Cleaning"
	ColNSFExpense      = "NSF Expense"
	ColExpenses        = "Expenses"
	ColNet             = "Net"
	ColPeriodMonth     = "Period Month"
	ColPeriodYear      = "Period Year"

	// ColExpenseCategory and ColAmount only appear in the long table.
	ColExpenseCategory = "Expense Category"
	ColAmount          = "Amount"
)

// WideColumns is the fixed 27-column header layout of the wide table.
var WideColumns = []Column{
	{ColOwner, KindText},
	{ColPostalCode, KindText},
	{ColStatementPeriod, KindText},
	{ColPropertyAddress, KindText},
	{ColRent, KindNumber},
	{ColNSFIncome, KindNumber},
	{ColMaintenance, KindNumber},
	{ColIncomeTotal, KindNumber},
	{ColGeneralRepairs, KindNumber},
	{ColApplianceRepair, KindNumber},
	{ColAdvertising, KindNumber},
	{ColLeaseUpBillable, KindNumber},
	{ColPlumbing, KindNumber},
	{ColCondoFees, KindNumber},
	{ColMgmtFee, KindNumber},
	{ColGarbageRemoval, KindNumber},
	{ColHydro, KindNumber},
	{ColOtherBillable, KindNumber},
	{ColElectrical, KindNumber},
	{ColCreditCheckNB, KindNumber},
	{ColLeaseUpNB, KindNumber},
	{ColUnitCleaning, KindNumber},
	{ColNSFExpense, KindNumber},
	{ColExpenses, KindNumber},
	{ColNet, KindNumber},
	{ColPeriodMonth, KindText},
	{ColPeriodYear, KindText},
}

// LongColumns is the header layout of the expense-long table.
var LongColumns = []Column{
	{ColOwner, KindText},
	{ColPropertyAddress, KindText},
	{ColStatementPeriod, KindText},
	{ColExpenseCategory, KindText},
	{ColAmount, KindNumber},
}

// ExpenseCategories lists the expense columns fanned out to the long table,
// in fan-out order.
var ExpenseCategories = []string{
	ColAdvertising,
	ColHydro,
	ColPlumbing,
	ColGeneralRepairs,
	ColApplianceRepair,
	ColLeaseUpBillable,
	ColCondoFees,
	ColMgmtFee,
	ColGarbageRemoval,
	ColOtherBillable,
	ColElectrical,
	ColCreditCheckNB,
	ColLeaseUpNB,
	ColUnitCleaning,
	ColNSFExpense,
}

// textColumns are excluded from numeric coercion.
var textColumns = map[string]bool{
	ColOwner:           true,
	ColPropertyAddress: true,
	ColPostalCode:      true,
	ColStatementPeriod: true,
	ColPeriodMonth:     true,
	ColPeriodYear:      true,
}

// IsTextColumn reports whether a canonical wide column is an identity or
// derived string column. Every other column is numeric.
func IsTextColumn(name string) bool {
	return textColumns[name]
}

// Headers returns the column names in order.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// IndexOf returns the position of name in cols, or -1.
func IndexOf(cols []Column, name string) int {
	for i, c := range cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}
