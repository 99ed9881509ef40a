package ports

import (
	"context"

	"browser-agent/internal/domain/entity"
)

// TestCatalog is the read-only test-catalog collaborator. The core
// never mutates what it returns.
type TestCatalog interface {
	// FetchTestCase returns the test case by id, or (nil, nil) if it does
	// not exist — callers turn a nil TestCase into a not-found error.
	FetchTestCase(ctx context.Context, id string) (*entity.TestCase, error)

	// FetchTestCasesByModuleIDs returns every test case belonging to
	// moduleIDs, scoped to userID/projectID, ordered ascending by
	// creation time.
	FetchTestCasesByModuleIDs(ctx context.Context, moduleIDs []string, userID, projectID string) ([]entity.TestCase, error)
}
