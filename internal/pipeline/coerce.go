package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueCoercer turns loosely typed extracted values into numbers or strings.
// Anything that does not parse as a number becomes 0.
type ValueCoercer struct {
	strip *strings.Replacer
}

// NewValueCoercer returns a coercer that removes the given symbols before
// parsing numbers. Whitespace is always removed.
func NewValueCoercer(symbols ...string) ValueCoercer {
	pairs := []string{" ", "", "\t", "", "\n", "", "\r", "", "\u00a0", ""}
	for _, s := range symbols {
		pairs = append(pairs, s, "")
	}
	return ValueCoercer{strip: strings.NewReplacer(pairs...)}
}

// Number coerces v to a finite float64, defaulting to 0.
func (c ValueCoercer) Number(v interface{}) float64 {
	switch val := v.(type) {
	case nil, bool:
		return 0
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		return c.parse(val.String())
	case string:
		return c.parse(val)
	default:
		return c.parse(fmt.Sprint(val))
	}
}

// Decimal is Number with exact decimal semantics.
func (c ValueCoercer) Decimal(v interface{}) decimal.Decimal {
	switch val := v.(type) {
	case string:
		return c.parseDecimal(val)
	case json.Number:
		return c.parseDecimal(val.String())
	}
	return decimal.NewFromFloat(c.Number(v))
}

func (c ValueCoercer) parse(s string) float64 {
	f, _ := c.parseDecimal(s).Float64()
	return finite(f)
}

func (c ValueCoercer) parseDecimal(s string) decimal.Decimal {
	if c.strip != nil {
		s = c.strip.Replace(s)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !inFloatRange(d) {
		return decimal.Zero
	}
	return d
}

// Decimal magnitudes outside float64 range. Checked before any conversion,
// since expanding a huge exponent is itself unbounded work.
const (
	maxDecimalMagnitude = 308
	minDecimalMagnitude = -400
)

// inFloatRange reports whether d, written as c×10^e, has a decimal magnitude
// a float64 can hold.
func inFloatRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	mag := int64(d.Exponent()) + int64(d.NumDigits()) - 1
	return mag >= minDecimalMagnitude && mag <= maxDecimalMagnitude
}

// Text renders v as a string without altering its content. Missing values
// become "".
func (c ValueCoercer) Text(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
