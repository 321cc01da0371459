// Package xlsx stores destination tables as worksheets of a local Excel
// workbook. The workbook is saved after every write.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/owner-statements/internal/tables"
)

// Service is the workbook implementation of tables.Service.
type Service struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// Open loads the workbook at path, or starts a new one if it does not exist.
func Open(path string) (*Service, error) {
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("Open: %q: %w", path, err)
	}
	return &Service{path: path, file: f}, nil
}

// Close saves and closes the workbook.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("Close: saving %q: %w", s.path, err)
	}
	return s.file.Close()
}

// EnsureTable implements tables.Service.
func (s *Service) EnsureTable(ctx context.Context, spec tables.Spec) (tables.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Table{svc: s, name: spec.Name, headers: spec.Headers()}

	idx, err := s.file.GetSheetIndex(spec.Name)
	if err != nil {
		return nil, fmt.Errorf("EnsureTable: %w", err)
	}
	if idx == -1 {
		if _, err := s.file.NewSheet(spec.Name); err != nil {
			return nil, fmt.Errorf("EnsureTable: adding sheet %q: %w", spec.Name, err)
		}
	}

	current, err := s.headerRow(spec.Name)
	if err != nil {
		return nil, fmt.Errorf("EnsureTable: %w", err)
	}
	if len(current) > 0 && !spec.ForceHeaders {
		t.headers = current
		return t, nil
	}

	if err := s.setRow(spec.Name, 1, toCells(t.headers)); err != nil {
		return nil, fmt.Errorf("EnsureTable: %w", err)
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return nil, fmt.Errorf("EnsureTable: saving %q: %w", s.path, err)
	}
	return t, nil
}

func (s *Service) headerRow(sheet string) ([]string, error) {
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *Service) setRow(sheet string, n int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := s.file.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d of %q: %w", n, sheet, err)
	}
	return nil
}

// Table is one worksheet.
type Table struct {
	svc     *Service
	name    string
	headers []string
}

func (t *Table) Name() string { return t.name }

func (t *Table) Headers() []string { return append([]string(nil), t.headers...) }

// ReadAllRows implements tables.Table.
func (t *Table) ReadAllRows(ctx context.Context) ([][]string, error) {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()

	rows, err := t.svc.file.GetRows(t.name)
	if err != nil {
		return nil, fmt.Errorf("ReadAllRows: %q: %w", t.name, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// AppendRows writes rows below the last used row and saves the workbook.
func (t *Table) AppendRows(ctx context.Context, rows [][]interface{}) error {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()

	existing, err := t.svc.file.GetRows(t.name)
	if err != nil {
		return fmt.Errorf("AppendRows: %q: %w", t.name, err)
	}
	next := len(existing) + 1
	for i, r := range rows {
		if err := t.svc.setRow(t.name, next+i, r); err != nil {
			return fmt.Errorf("AppendRows: %w", err)
		}
	}
	if err := t.svc.file.SaveAs(t.svc.path); err != nil {
		return fmt.Errorf("AppendRows: saving %q: %w", t.svc.path, err)
	}
	return nil
}

// AppendRow implements tables.Table.
func (t *Table) AppendRow(ctx context.Context, row []interface{}) error {
	return t.AppendRows(ctx, [][]interface{}{row})
}

func toCells(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
