// Package noop provides a ResultStore that discards every write,
// proving the orchestrator's observable behavior does not depend on a
// real store (per spec.md §9 design notes).
package noop

import (
	"context"

	"browser-agent/internal/domain/ports"
)

var _ ports.ResultStore = Store{}

// Store is a zero-value-ready ResultStore that never fails and never
// records anything.
type Store struct{}

func (Store) SaveTestResult(ctx context.Context, in ports.SaveResultInput) error {
	return nil
}
