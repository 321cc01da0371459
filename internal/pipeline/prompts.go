package pipeline

import (
	"fmt"
	"strings"
)

const statementGuidelines = `Follow these guidelines:

1. Owner Name: the name after "Owner:" near the bottom of the last page.
2. Left Corner Address and Postal Code: the two-line address block in the page footer, returned as one string.
3. Statement Period: the date range after the "Statement period" label.
4. Statement Date: the date after the "Statement date" label.
5. Address: the property address at the top of each property column.
6. Income: "Rent", "Gross Rent" or "Rent Income" as "Rent Income"; "NSF Fee Income"; "Maintenance Income"; and "Total Income".
7. Expenses: the amount for each coded expense label listed above. Treat "Strata Fees" as "Condo Fees". The "NSF Fee" line in the expense block is "NSF Fee (Expense)".
8. Totals: "Total Expenses" and "Net Income" at the bottom of each column.

If a value is not present for a property, use an empty string.
Return ONLY raw JSON. Do not wrap it in code fences.`

// BuildStatementPrompt returns the owner statement extraction prompt with one
// JSON key per raw label in rules.
func BuildStatementPrompt(rules []FieldRule) string {
	var b strings.Builder
	b.WriteString("You extract structured financial data from rental owner statements in PDF form. ")
	b.WriteString("A statement may cover several properties laid out as columns, one column per property.\n\n")
	b.WriteString("Output a JSON array with one object per property. Each object has exactly these keys:\n\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "- %q\n", r.Raw)
	}
	b.WriteString("\n")
	b.WriteString(statementGuidelines)
	return b.String()
}

// TaxNoticePrompt asks for one object per property and year from an
// assessment and tax levy notice.
const TaxNoticePrompt = `Extract property tax data from the attached assessment and tax levy notice. The notice covers a single property.

Return a JSON array with one object per tax year. Each object has these keys:

- "Property Address": exactly as shown
- "Roll Number": exactly as shown
- "Assessment Value": number
- "Year": four-digit year
- "Tax Rate Used": percentage as a number, e.g. 1.478321
- "Property Tax": number
- "First Half Payment": number
- "Second Half Payment": number
- "Monthly Payment": number

Use the year-specific assessment value when one is listed, otherwise reuse the only one shown.
Leave a numeric field empty when the notice does not state it.
Return ONLY raw JSON. Do not wrap it in code fences.`
