package llm

import (
	"context"
	"fmt"
)

// Gateway is the narrow capability boundary to the remote conversational
// LLM service.  Every call is attached to a session so the remote side can
// apply its own history and memory retrieval.  Implementations must be safe
// for concurrent use across sessions.
type Gateway interface {
	// CreateSession provisions a new remote conversation thread and returns
	// its identifier.
	CreateSession(ctx context.Context) (string, error)
	// Send posts a prompt on the session's thread and returns the raw reply
	// text verbatim.  The reply may be wrapped in markdown code fences; the
	// caller is responsible for stripping them.
	Send(ctx context.Context, sessionID, prompt string) (string, error)
	// AddMemory appends content to the session's thread without requesting a
	// reply, so the remote side retains it as durable context.
	AddMemory(ctx context.Context, sessionID, content string) error
}

// GatewayError reports a failed, timed-out, or empty remote call.  The
// orchestrator decides whether to retry or surface it as a degraded turn;
// it is never fatal to the process.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("llm gateway: %s failed", e.Op)
	}
	return fmt.Sprintf("llm gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
