package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedFieldExtractor_PostalCode(t *testing.T) {
	d := DerivedFieldExtractor{}

	tests := []struct {
		input string
		want  string
	}{
		{"123 Main St\nKingston, ON K7L 3N6", "K7L 3N6"},
		{"PO Box 4, Kingston ON k7l-3n6", "k7l-3n6"},
		{"Kingston ON K7L3N6 Canada", "K7L3N6"},
		{"No postal code here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, d.PostalCode(tt.input))
		})
	}
}

func TestDerivedFieldExtractor_Period(t *testing.T) {
	d := DerivedFieldExtractor{}

	tests := []struct {
		input     string
		wantMonth string
		wantYear  string
	}{
		{"2024-03-01 to 2024-03-31", "March", "2024"},
		{"Period: 2023-12-01 - 2023-12-31", "December", "2023"},
		{"Q1 2024", "", ""},
		{"March 2024", "", ""},
		{"2024-13-01", "", "2024"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			month, year := d.Period(tt.input)
			assert.Equal(t, tt.wantMonth, month)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}

func TestDerivedFieldExtractor_NormalizeAddress(t *testing.T) {
	d := DerivedFieldExtractor{}

	tests := []struct {
		input string
		want  string
	}{
		{"  123   MAIN st.  ", "123 Main St"},
		{"45 King St. W, Unit 2", "45 King St W Unit 2"},
		{"all properties", "All Properties"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, d.NormalizeAddress(tt.input))
		})
	}
}
