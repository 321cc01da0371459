package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	postalCodePattern = regexp.MustCompile(`(?i)\b[A-Z]\d[A-Z][ -]?\d[A-Z]\d\b`)
	isoDatePattern    = regexp.MustCompile(`(\d{4})-(\d{2})-\d{2}`)
	yearPattern       = regexp.MustCompile(`\d{4}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	addressPunct      = strings.NewReplacer(".", "", ",", "")
)

var monthNames = map[string]string{
	"01": "January",
	"02": "February",
	"03": "March",
	"04": "April",
	"05": "May",
	"06": "June",
	"07": "July",
	"08": "August",
	"09": "September",
	"10": "October",
	"11": "November",
	"12": "December",
}

// DerivedFieldExtractor computes the columns that are not read directly off
// the statement.
type DerivedFieldExtractor struct{}

// PostalCode returns the first Canadian postal code in block, or "".
func (DerivedFieldExtractor) PostalCode(block string) string {
	return postalCodePattern.FindString(block)
}

// Period returns the month name and year of a statement period. Both are
// empty unless the period contains a YYYY-MM-DD date. The year is the first
// four-digit run in the period.
func (DerivedFieldExtractor) Period(period string) (month, year string) {
	m := isoDatePattern.FindStringSubmatch(period)
	if m == nil {
		return "", ""
	}
	return monthNames[m[2]], yearPattern.FindString(period)
}

// NormalizeAddress trims, lowercases, collapses whitespace, drops periods and
// commas, then title-cases each word.
func (DerivedFieldExtractor) NormalizeAddress(addr string) string {
	s := strings.ToLower(strings.TrimSpace(addr))
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = addressPunct.Replace(s)
	return cases.Title(language.English).String(s)
}
