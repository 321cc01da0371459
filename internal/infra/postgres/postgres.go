// Package postgres stores destination tables in PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// seqColumn orders rows by insertion.
const seqColumn = "seq"

// Service is the PostgreSQL implementation of tables.Service.
type Service struct {
	pool   *pgxpool.Pool
	schema string
}

// NewService connects to dsn and verifies the connection.
func NewService(ctx context.Context, dsn, schema string) (*Service, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("NewService: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("NewService: ping: %w", err)
	}
	return NewServiceWithPool(pool, schema), nil
}

// NewServiceWithPool wraps an existing pool. An empty schema means public.
func NewServiceWithPool(pool *pgxpool.Pool, schema string) *Service {
	if schema == "" {
		schema = "public"
	}
	return &Service{pool: pool, schema: schema}
}

// Close closes the pool.
func (s *Service) Close() {
	s.pool.Close()
}

// EnsureTable implements tables.Service.
func (s *Service) EnsureTable(ctx context.Context, spec tables.Spec) (tables.Table, error) {
	ident := pgx.Identifier{s.schema, tables.Ident(spec.Name)}

	if _, err := s.pool.Exec(ctx, CreateTableSQL(ident, spec.Columns)); err != nil {
		return nil, fmt.Errorf("EnsureTable: creating %s: %w", ident.Sanitize(), err)
	}
	if spec.ForceHeaders {
		for _, stmt := range AddColumnsSQL(ident, spec.Columns) {
			if _, err := s.pool.Exec(ctx, stmt); err != nil {
				return nil, fmt.Errorf("EnsureTable: altering %s: %w", ident.Sanitize(), err)
			}
		}
	}

	return &Table{pool: s.pool, ident: ident, spec: spec}, nil
}

// CreateTableSQL returns an idempotent CREATE TABLE for the columns.
func CreateTableSQL(ident pgx.Identifier, cols []domain.Column) string {
	defs := []string{seqColumn + " BIGSERIAL PRIMARY KEY"}
	for _, c := range cols {
		defs = append(defs, columnDef(c))
	}
	defs = append(defs, "ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", ident.Sanitize(), strings.Join(defs, ",\n\t"))
}

// AddColumnsSQL returns one ALTER TABLE per column so a drifted table gains
// any missing columns.
func AddColumnsSQL(ident pgx.Identifier, cols []domain.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", ident.Sanitize(), columnDef(c))
	}
	return out
}

func columnDef(c domain.Column) string {
	typ := "TEXT NOT NULL DEFAULT ''"
	if c.Kind == domain.KindNumber {
		typ = "DOUBLE PRECISION NOT NULL DEFAULT 0"
	}
	return pgx.Identifier{tables.Ident(c.Name)}.Sanitize() + " " + typ
}

// Table is one PostgreSQL table.
type Table struct {
	pool  *pgxpool.Pool
	ident pgx.Identifier
	spec  tables.Spec
}

func (t *Table) Name() string { return t.spec.Name }

func (t *Table) Headers() []string { return t.spec.Headers() }

func (t *Table) columns() []string {
	cols := make([]string, len(t.spec.Columns))
	for i, c := range t.spec.Columns {
		cols[i] = tables.Ident(c.Name)
	}
	return cols
}

// ReadAllRows implements tables.Table.
func (t *Table) ReadAllRows(ctx context.Context) ([][]string, error) {
	quoted := make([]string, 0, len(t.spec.Columns))
	for _, c := range t.columns() {
		quoted = append(quoted, pgx.Identifier{c}.Sanitize())
	}
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(quoted, ", "), t.ident.Sanitize(), seqColumn)

	rows, err := t.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("ReadAllRows: querying %s: %w", t.ident.Sanitize(), err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("ReadAllRows: scanning %s: %w", t.ident.Sanitize(), err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = tables.FormatCell(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReadAllRows: %w", err)
	}
	return out, nil
}

// AppendRows copies rows in one transaction so a batch lands whole or not
// at all.
func (t *Table) AppendRows(ctx context.Context, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("AppendRows: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	copyRows := CopyRows(t.spec.Columns, rows)
	if _, err := tx.CopyFrom(ctx, t.ident, t.columns(), pgx.CopyFromRows(copyRows)); err != nil {
		return fmt.Errorf("AppendRows: copying into %s: %w", t.ident.Sanitize(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("AppendRows: commit: %w", err)
	}
	return nil
}

// AppendRow implements tables.Table.
func (t *Table) AppendRow(ctx context.Context, row []interface{}) error {
	return t.AppendRows(ctx, [][]interface{}{row})
}

// CopyRows converts projected rows into typed COPY rows.
func CopyRows(cols []domain.Column, rows [][]interface{}) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		typed := make([]interface{}, len(cols))
		for j, c := range cols {
			var cell interface{}
			if j < len(r) {
				cell = r[j]
			}
			if c.Kind == domain.KindNumber {
				typed[j] = tables.CellNumber(cell)
			} else {
				typed[j] = tables.FormatCell(cell)
			}
		}
		out[i] = typed
	}
	return out
}
