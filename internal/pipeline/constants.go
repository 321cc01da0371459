package pipeline

import "time"

// Defaults for extraction and pacing. Configuration overrides all of them.
const (
	// DefaultModelName is the Gemini model used for extraction.
	DefaultModelName = "gemini-2.0-flash-001"

	// DefaultStatementCooldown is the pause after each owner statement.
	DefaultStatementCooldown = 15 * time.Second

	// DefaultTaxCooldown is the pause after each tax notice.
	DefaultTaxCooldown = 10 * time.Second
)

// Default destination table names.
const (
	DefaultWideTable = "Sheet1"
	DefaultLongTable = "Expenses Long"
	DefaultTaxTable  = "Property Tax Summary"
)

// Run variants as recorded in the run ledger.
const (
	VariantStatements = "STATEMENTS"
	VariantTax        = "TAX"
)
