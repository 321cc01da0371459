package pipeline

import (
	"context"

	"github.com/dvloznov/owner-statements/internal/docsource"
	"github.com/dvloznov/owner-statements/internal/domain"
)

// DocumentSource lists and fetches the PDFs to ingest.
type DocumentSource interface {
	List(ctx context.Context, location string) ([]docsource.Document, error)
	Fetch(ctx context.Context, doc docsource.Document) ([]byte, error)
}

// Extractor turns a PDF into raw field records. Implementations must accept
// model output shaped as a single object or as an array of objects.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (*Extraction, error)
}

// Extraction is the decoded output of one extraction call.
type Extraction struct {
	Records      []domain.RawRecord
	RawText      string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Recorder keeps an audit trail of runs and raw model output. Recorder
// failures are logged and never fail a document.
type Recorder interface {
	RecordModelOutput(ctx context.Context, out domain.ModelOutput) error
	RecordRun(ctx context.Context, summary domain.RunSummary) error
}
