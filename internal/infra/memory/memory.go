// Package memory is an in-process table store. It backs tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/owner-statements/internal/tables"
)

// Service keeps tables in memory. When created with an upstream service,
// tables are seeded from the upstream rows on first use and appends never
// reach upstream.
type Service struct {
	mu       sync.Mutex
	tables   map[string]*Table
	upstream tables.Service
}

// NewService returns an empty in-memory store.
func NewService() *Service {
	return &Service{tables: make(map[string]*Table)}
}

// NewShadow returns a store that reads existing rows from upstream and keeps
// every write local.
func NewShadow(upstream tables.Service) *Service {
	s := NewService()
	s.upstream = upstream
	return s
}

// EnsureTable implements tables.Service.
func (s *Service) EnsureTable(ctx context.Context, spec tables.Spec) (tables.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[spec.Name]; ok {
		if spec.ForceHeaders {
			t.setHeaders(spec.Headers())
		}
		return t, nil
	}

	t := &Table{name: spec.Name, headers: spec.Headers()}
	if s.upstream != nil {
		seed := spec
		seed.ForceHeaders = false
		up, err := s.upstream.EnsureTable(ctx, seed)
		if err != nil {
			return nil, fmt.Errorf("EnsureTable: upstream %q: %w", spec.Name, err)
		}
		// Seeded rows are laid out for the upstream header row, so the
		// shadow keeps it even when the spec would force new headers.
		t.headers = up.Headers()
		rows, err := up.ReadAllRows(ctx)
		if err != nil {
			return nil, fmt.Errorf("EnsureTable: reading upstream %q: %w", spec.Name, err)
		}
		for _, r := range rows {
			cells := make([]interface{}, len(r))
			for i, c := range r {
				cells[i] = c
			}
			t.rows = append(t.rows, cells)
		}
	}
	s.tables[spec.Name] = t
	return t, nil
}

// Table returns the named table, or nil.
func (s *Service) Table(name string) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[name]
}

// Table is an in-memory append-only table.
type Table struct {
	mu      sync.Mutex
	name    string
	headers []string
	rows    [][]interface{}
	appends int
}

func (t *Table) Name() string { return t.name }

func (t *Table) Headers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.headers...)
}

func (t *Table) setHeaders(h []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.headers = h
}

// ReadAllRows implements tables.Table.
func (t *Table) ReadAllRows(ctx context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		cells := make([]string, len(r))
		for j, c := range r {
			cells[j] = tables.FormatCell(c)
		}
		out[i] = cells
	}
	return out, nil
}

// AppendRows implements tables.Table.
func (t *Table) AppendRows(ctx context.Context, rows [][]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		t.rows = append(t.rows, append([]interface{}(nil), r...))
	}
	t.appends++
	return nil
}

// AppendRow implements tables.Table.
func (t *Table) AppendRow(ctx context.Context, row []interface{}) error {
	return t.AppendRows(ctx, [][]interface{}{row})
}

// Rows returns a copy of every row including those seeded from upstream.
func (t *Table) Rows() [][]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]interface{}, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]interface{}(nil), r...)
	}
	return out
}

// Appends returns how many append calls succeeded.
func (t *Table) Appends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appends
}
