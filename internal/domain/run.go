package domain

import "time"

// RunSummary tallies one ingestion run across all documents.
type RunSummary struct {
	RunID      string
	Variant    string
	StartedAt  time.Time
	FinishedAt time.Time

	Documents       int
	FailedDocuments int
	Records         int
	Filtered        int
	Duplicates      int
	WideRows        int
	LongRows        int
}

// Status reports SUCCESS when every document completed, PARTIAL when some
// failed and FAILED when all of them did.
func (s RunSummary) Status() string {
	switch {
	case s.FailedDocuments == 0:
		return "SUCCESS"
	case s.FailedDocuments < s.Documents:
		return "PARTIAL"
	default:
		return "FAILED"
	}
}

// ModelOutput is the raw extraction response kept for audit.
type ModelOutput struct {
	RunID        string
	DocumentURI  string
	ModelName    string
	RawText      string
	InputTokens  int64
	OutputTokens int64
	CreatedAt    time.Time
}
