package memory

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"neuroflow/internal/llm"
	"neuroflow/pkg"
)

// RemoteStore delegates memory to the remote LLM service: each long-term
// item is appended to the session's thread, and context retrieval is a
// passthrough because the remote side applies its own memory retrieval on
// every call.
type RemoteStore struct {
	gw  llm.Gateway
	log *zap.Logger
}

// NewRemoteStore constructs a RemoteStore over the given gateway.
func NewRemoteStore(gw llm.Gateway, log *zap.Logger) *RemoteStore {
	return &RemoteStore{gw: gw, log: log}
}

// GetContext returns an empty string: the remote thread already carries the
// accumulated memory.
func (s *RemoteStore) GetContext(ctx context.Context, sessionID string) (string, error) {
	return "", nil
}

// Write appends each long-term item to the remote thread in input order.
// Per-item failures are logged and collected; the remaining items are still
// written.
func (s *RemoteStore) Write(ctx context.Context, sessionID string, mc pkg.MemoryCandidates) error {
	if len(mc.LongTerm) == 0 {
		return nil
	}
	var failed int
	var errs error
	for _, item := range mc.LongTerm {
		if err := s.gw.AddMemory(ctx, sessionID, item); err != nil {
			failed++
			errs = errors.Join(errs, err)
			s.log.Warn("remote memory write failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if failed > 0 {
		return &WriteError{SessionID: sessionID, Failed: failed, Err: errs}
	}
	return nil
}
