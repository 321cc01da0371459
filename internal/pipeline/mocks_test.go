package pipeline_test

import (
	"context"
	"errors"
	"sync"

	"github.com/dvloznov/owner-statements/internal/docsource"
	"github.com/dvloznov/owner-statements/internal/domain"
	"github.com/dvloznov/owner-statements/internal/pipeline"
	"github.com/dvloznov/owner-statements/internal/tables"
)

// MockDocumentSource is a mock implementation of pipeline.DocumentSource.
type MockDocumentSource struct {
	ListFunc  func(ctx context.Context, location string) ([]docsource.Document, error)
	FetchFunc func(ctx context.Context, doc docsource.Document) ([]byte, error)
}

func (m *MockDocumentSource) List(ctx context.Context, location string) ([]docsource.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, location)
	}
	return nil, nil
}

func (m *MockDocumentSource) Fetch(ctx context.Context, doc docsource.Document) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, doc)
	}
	return []byte(doc.URI), nil
}

// MockExtractor is a mock implementation of pipeline.Extractor.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, pdf []byte) (*pipeline.Extraction, error)
}

func (m *MockExtractor) Extract(ctx context.Context, pdf []byte) (*pipeline.Extraction, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, pdf)
	}
	return &pipeline.Extraction{}, nil
}

// MockRecorder captures ledger writes.
type MockRecorder struct {
	mu      sync.Mutex
	Outputs []domain.ModelOutput
	Runs    []domain.RunSummary
}

func (m *MockRecorder) RecordModelOutput(ctx context.Context, out domain.ModelOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outputs = append(m.Outputs, out)
	return nil
}

func (m *MockRecorder) RecordRun(ctx context.Context, summary domain.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, summary)
	return nil
}

// failingService wraps a table service and fails appends to one table.
type failingService struct {
	tables.Service
	failTable string
}

func (f *failingService) EnsureTable(ctx context.Context, spec tables.Spec) (tables.Table, error) {
	t, err := f.Service.EnsureTable(ctx, spec)
	if err != nil || spec.Name != f.failTable {
		return t, err
	}
	return &failingTable{Table: t}, nil
}

type failingTable struct {
	tables.Table
}

func (f *failingTable) AppendRows(ctx context.Context, rows [][]interface{}) error {
	return errors.New("sheets: 503 service unavailable")
}

func (f *failingTable) AppendRow(ctx context.Context, row []interface{}) error {
	return errors.New("sheets: 503 service unavailable")
}
