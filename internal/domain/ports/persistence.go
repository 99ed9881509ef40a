package ports

import (
	"context"

	"browser-agent/internal/domain/entity"
)

// SaveResultInput is the payload saved per executed test case.
type SaveResultInput struct {
	RunID     string
	UserID    string
	TestCase  string // test case id
	Name      string
	ProjectID string
	ModuleID  string
	Status    entity.Status
	Report    entity.TestReport
	// FailScreenshot is a "data:image/png;base64,..." URI, set only when
	// Status is fail.
	FailScreenshot string
}

// ResultStore is the write-only persistence collaborator. It upserts
// one row keyed by TestCase holding the latest status, and appends one
// row to a run-history log. A failure to persist is logged by the caller
// and never aborts a run.
type ResultStore interface {
	SaveTestResult(ctx context.Context, in SaveResultInput) error
}
