package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// Index is the set of keys already persisted in a destination table. It is
// built once per run and grows as rows are written. It is not safe for
// concurrent use.
type Index[K comparable] struct {
	keys map[K]struct{}
}

// DedupIndex indexes the wide statement table.
type DedupIndex = Index[domain.DedupKey]

// TaxIndex indexes the property tax summary table.
type TaxIndex = Index[domain.TaxKey]

// NewIndex returns an empty index.
func NewIndex[K comparable]() *Index[K] {
	return &Index[K]{keys: make(map[K]struct{})}
}

// Contains reports whether key is already present.
func (ix *Index[K]) Contains(key K) bool {
	_, ok := ix.keys[key]
	return ok
}

// Add records key as present.
func (ix *Index[K]) Add(key K) {
	ix.keys[key] = struct{}{}
}

// Len returns the number of distinct keys.
func (ix *Index[K]) Len() int {
	return len(ix.keys)
}

// KeyFunc extracts the dedup key from a persisted row. ok is false for rows
// too short to carry a key.
type KeyFunc[K comparable] func(row []string) (key K, ok bool)

// BuildIndex reads every persisted row of table and indexes its keys.
func BuildIndex[K comparable](ctx context.Context, table tables.Table, keyOf KeyFunc[K]) (*Index[K], error) {
	rows, err := table.ReadAllRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("BuildIndex: reading %q: %w", table.Name(), err)
	}

	ix := NewIndex[K]()
	for _, row := range rows {
		if key, ok := keyOf(row); ok {
			ix.Add(key)
		}
	}
	return ix, nil
}

// StatementKeyFunc locates Owner, Statement Period and Property Address in
// headers. Persisted addresses are normalized the same way new rows are, so
// rows written before normalization existed still match.
func StatementKeyFunc(headers []string) KeyFunc[domain.DedupKey] {
	owner := headerIndex(headers, domain.ColOwner)
	period := headerIndex(headers, domain.ColStatementPeriod)
	address := headerIndex(headers, domain.ColPropertyAddress)
	need := maxInt(owner, period, address)
	derive := DerivedFieldExtractor{}

	return func(row []string) (domain.DedupKey, bool) {
		if owner < 0 || period < 0 || address < 0 || len(row) <= need {
			return domain.DedupKey{}, false
		}
		return domain.NewDedupKey(
			row[owner],
			row[period],
			derive.NormalizeAddress(row[address]),
		), true
	}
}

// TaxKeyFunc locates Property Address and Year in headers.
func TaxKeyFunc(headers []string) KeyFunc[domain.TaxKey] {
	address := headerIndex(headers, domain.ColPropertyAddress)
	year := headerIndex(headers, domain.ColYear)
	need := maxInt(address, year)

	return func(row []string) (domain.TaxKey, bool) {
		if address < 0 || year < 0 || len(row) <= need {
			return domain.TaxKey{}, false
		}
		return domain.NewTaxKey(row[address], row[year]), true
	}
}

func headerIndex(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
