package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction covers failures fetching a document or decoding the
	// extraction output.
	ErrExtraction = errors.New("extraction failed")

	// ErrPersistence covers failures reading from or appending to a table.
	ErrPersistence = errors.New("persistence failed")
)

// DocumentError reports the stage at which a document failed.
type DocumentError struct {
	URI   string
	Stage Stage
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s failed while %s: %v", e.URI, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
