package docsource

import (
	"context"
	"path"
	"strings"
)

// Document is a handle to one PDF in a document store.
type Document struct {
	// URI identifies the document, e.g. gs://bucket/statements/march.pdf.
	URI string
	// Name is the object name or path relative to the store.
	Name string
}

// Filename returns the base name of the document.
func (d Document) Filename() string {
	return path.Base(d.Name)
}

// Source lists and fetches documents. Listing order is stable across calls.
type Source interface {
	List(ctx context.Context, location string) ([]Document, error)
	Fetch(ctx context.Context, doc Document) ([]byte, error)
}

// isPDF reports whether name has a .pdf extension, case-insensitively.
func isPDF(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}
