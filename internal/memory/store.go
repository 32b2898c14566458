// Package memory persists long-term memory items extracted from intake turns
// and supplies context text for future prompts.
package memory

import (
	"context"
	"fmt"

	"neuroflow/pkg"
)

// Store is the long-term memory boundary.  Only LongTerm candidates are ever
// persisted; ShortTerm items never outlive their turn.  Implementations must
// be safe for concurrent use across sessions; within one session the
// orchestrator serialises writes in turn order.
type Store interface {
	// GetContext returns accumulated context text to embed in the next
	// prompt.  It is deterministic and monotonically growing within a
	// session.  An empty string is valid when the remote service holds
	// memory internally.
	GetContext(ctx context.Context, sessionID string) (string, error)
	// Write persists the LongTerm items, one persistence call per item, in
	// input order.  An empty LongTerm slice is a no-op.
	Write(ctx context.Context, sessionID string, mc pkg.MemoryCandidates) error
}

// WriteError aggregates per-item persistence failures.  A failing item must
// not abort the remaining items' writes, so implementations collect failures
// and return them here; the orchestrator logs the error and the turn's
// response to the patient is unaffected.
type WriteError struct {
	SessionID string
	Failed    int
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("memory write for session %s: %d item(s) failed: %v", e.SessionID, e.Failed, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
