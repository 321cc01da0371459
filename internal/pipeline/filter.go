package pipeline

import (
	"strings"

	"github.com/dvloznov/owner-statements/internal/domain"
)

// summaryAddress marks the roll-up column some statements carry.
const summaryAddress = "all properties"

// RecordFilter drops rows that are not real properties.
type RecordFilter struct{}

// Keep reports whether row should be ingested.
func (RecordFilter) Keep(row *domain.CanonicalRow) bool {
	return !strings.EqualFold(strings.TrimSpace(row.PropertyAddress), summaryAddress)
}
