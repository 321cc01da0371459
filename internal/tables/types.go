package tables

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dvloznov/owner-statements/internal/domain"
)

// Spec declares a destination table.
type Spec struct {
	// Name is the worksheet title or table name as configured.
	Name    string
	Columns []domain.Column

	// ForceHeaders rewrites the header row (or schema) to Columns even when
	// the table already exists.
	ForceHeaders bool
}

// Headers returns the column names of the spec in order.
func (s Spec) Headers() []string {
	return domain.Headers(s.Columns)
}

// Service provides an interface for the key-value table store that persists
// ingested rows. Implementations exist for Google Sheets, BigQuery, Postgres,
// xlsx workbooks and memory.
type Service interface {
	// EnsureTable returns a handle for the table, creating it with headers
	// when it does not exist.
	EnsureTable(ctx context.Context, spec Spec) (Table, error)
}

// Table is a handle to one append-only destination table.
type Table interface {
	// Name returns the configured table name.
	Name() string

	// Headers returns the header layout rows are projected onto.
	Headers() []string

	// ReadAllRows returns every persisted data row (header excluded) in
	// persisted order, each cell rendered as a string.
	ReadAllRows(ctx context.Context) ([][]string, error)

	// AppendRows appends rows in one call. Cells are string or float64.
	AppendRows(ctx context.Context, rows [][]interface{}) error

	// AppendRow appends a single row.
	AppendRow(ctx context.Context, row []interface{}) error
}

// FormatCell renders a cell the way it is read back from a table.
func FormatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// CellNumber reads a numeric cell. Strings that do not parse become 0.
func CellNumber(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Ident converts a header such as "Lease Up (Billable)" into a SQL-safe
// snake_case identifier ("lease_up_billable").
func Ident(header string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(header) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "col"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "c_" + out
	}
	return out
}
