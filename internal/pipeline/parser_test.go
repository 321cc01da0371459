package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/owner-statements/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare array", `[{"a":1}]`, `[{"a":1}]`},
		{"fenced json", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"fenced object", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around array", "Here you go:\n[{\"a\":1}]\nThanks", `[{"a":1}]`},
		{"prose around object", "Result: {\"a\":{\"b\":2}} done", `{"a":{"b":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.input))
		})
	}
}

func TestDecodeRecords(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		recs, err := DecodeRecords(`{"Owner Name": "J Smith", "Rent Income": 1500.5}`)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "J Smith", recs[0]["Owner Name"])
		assert.Equal(t, json.Number("1500.5"), recs[0]["Rent Income"])
	})

	t.Run("array", func(t *testing.T) {
		recs, err := DecodeRecords("```json\n[{\"Address\": \"12 Oak St\"}, {\"Address\": \"All Properties\"}]\n```")
		require.NoError(t, err)
		assert.Equal(t, []domain.RawRecord{
			{"Address": "12 Oak St"},
			{"Address": "All Properties"},
		}, recs)
	})

	t.Run("empty array", func(t *testing.T) {
		recs, err := DecodeRecords(`[]`)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodeRecords("I could not read this document.")
		assert.Error(t, err)
	})

	t.Run("array of scalars", func(t *testing.T) {
		_, err := DecodeRecords(`[1, 2]`)
		assert.Error(t, err)
	})
}

func TestBuildStatementPrompt(t *testing.T) {
	prompt := BuildStatementPrompt(StatementFieldRules)
	for _, r := range StatementFieldRules {
		assert.True(t, strings.Contains(prompt, `"`+r.Raw+`"`), r.Raw)
	}
	assert.Contains(t, prompt, "JSON array")
}
