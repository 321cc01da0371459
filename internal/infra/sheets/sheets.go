// Package sheets stores destination tables as worksheets of one Google
// spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dvloznov/owner-statements/internal/tables"
)

// New worksheets are created with this grid so appends have room.
const (
	defaultRows    = 1000
	defaultColumns = 30
)

// Service is the Google Sheets implementation of tables.Service.
type Service struct {
	sheets        *sheets.Service
	spreadsheetID string
}

// NewService opens the spreadsheet by ID, or by title through Drive when
// spreadsheetID is empty.
func NewService(ctx context.Context, spreadsheetID, spreadsheetName string, opts ...option.ClientOption) (*Service, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewService: creating sheets client: %w", err)
	}

	if spreadsheetID == "" {
		if spreadsheetName == "" {
			return nil, fmt.Errorf("NewService: spreadsheet ID or name is required")
		}
		d, err := drive.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("NewService: creating drive client: %w", err)
		}
		spreadsheetID, err = findSpreadsheet(ctx, d, spreadsheetName)
		if err != nil {
			return nil, fmt.Errorf("NewService: %w", err)
		}
	}

	return NewServiceWithClient(svc, spreadsheetID), nil
}

// NewServiceWithClient wraps an existing sheets client.
func NewServiceWithClient(svc *sheets.Service, spreadsheetID string) *Service {
	return &Service{sheets: svc, spreadsheetID: spreadsheetID}
}

func findSpreadsheet(ctx context.Context, d *drive.Service, name string) (string, error) {
	resp, err := d.Files.List().
		Q(driveQuery(name)).
		Fields("files(id, name)").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("findSpreadsheet: listing drive files: %w", err)
	}
	if len(resp.Files) == 0 {
		return "", fmt.Errorf("findSpreadsheet: no spreadsheet named %q is shared with these credentials", name)
	}
	return resp.Files[0].Id, nil
}

func driveQuery(name string) string {
	escaped := strings.ReplaceAll(strings.ReplaceAll(name, `\`, `\\`), `'`, `\'`)
	return fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", escaped)
}

// EnsureTable implements tables.Service. A missing worksheet is created with
// the spec headers in row 1. An existing worksheet keeps its own header row
// unless ForceHeaders is set or the row is empty.
func (s *Service) EnsureTable(ctx context.Context, spec tables.Spec) (tables.Table, error) {
	exists, err := s.hasSheet(ctx, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("EnsureTable: %w", err)
	}

	t := &Table{svc: s, name: spec.Name, headers: spec.Headers()}

	if !exists {
		if err := s.addSheet(ctx, spec.Name, len(spec.Columns)); err != nil {
			return nil, fmt.Errorf("EnsureTable: %w", err)
		}
		return t, t.writeHeaders(ctx)
	}

	if spec.ForceHeaders {
		return t, t.writeHeaders(ctx)
	}

	current, err := t.readHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("EnsureTable: %w", err)
	}
	if len(current) == 0 {
		return t, t.writeHeaders(ctx)
	}
	t.headers = current
	return t, nil
}

func (s *Service) hasSheet(ctx context.Context, title string) (bool, error) {
	ss, err := s.sheets.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("reading spreadsheet %s: %w", s.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) addSheet(ctx context.Context, title string, columns int) error {
	if columns < defaultColumns {
		columns = defaultColumns
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
					GridProperties: &sheets.GridProperties{
						RowCount:    defaultRows,
						ColumnCount: int64(columns),
					},
				},
			},
		}},
	}
	if _, err := s.sheets.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("adding worksheet %q: %w", title, err)
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

func (t *Table) writeHeaders(ctx context.Context) error {
	row := make([]interface{}, len(t.headers))
	for i, h := range t.headers {
		row[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := t.svc.sheets.Spreadsheets.Values.Update(t.svc.spreadsheetID, a1(t.name, "A1"), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("writing headers of %q: %w", t.name, err)
	}
	return nil
}

func (t *Table) readHeaders(ctx context.Context) ([]string, error) {
	resp, err := t.svc.sheets.Spreadsheets.Values.Get(t.svc.spreadsheetID, a1(t.name, "1:1")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reading headers of %q: %w", t.name, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	out := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		out[i] = tables.FormatCell(v)
	}
	return out, nil
}

// ReadAllRows returns every row below the header as displayed in the sheet.
func (t *Table) ReadAllRows(ctx context.Context) ([][]string, error) {
	resp, err := t.svc.sheets.Spreadsheets.Values.Get(t.svc.spreadsheetID, a1(t.name, "")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("ReadAllRows: reading %q: %w", t.name, err)
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}

	rows := make([][]string, 0, len(resp.Values)-1)
	for _, r := range resp.Values[1:] {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = tables.FormatCell(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRows appends rows in one call with RAW input, inserting new rows.
func (t *Table) AppendRows(ctx context.Context, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	vr := &sheets.ValueRange{Values: rows}
	_, err := t.svc.sheets.Spreadsheets.Values.Append(t.svc.spreadsheetID, a1(t.name, "A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("AppendRows: appending to %q: %w", t.name, err)
	}
	return nil
}

// AppendRow implements tables.Table.
func (t *Table) AppendRow(ctx context.Context, row []interface{}) error {
	return t.AppendRows(ctx, [][]interface{}{row})
}

// a1 builds an A1 range for a worksheet title, quoting it as Sheets expects.
func a1(sheet, cells string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}
