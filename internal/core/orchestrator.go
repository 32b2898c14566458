package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"neuroflow/internal/llm"
	"neuroflow/internal/memory"
	"neuroflow/pkg"
)

// NoteGenerator is the orchestrator's view of the note-taking collaborator.
type NoteGenerator interface {
	GenerateNotes(ctx context.Context, sessionID string) (*pkg.ClinicalNote, string, error)
}

// Intake orchestrates the turn pipeline: memory context, response plan,
// prompt, remote call, parse, memory write, and the termination decision.
// One Intake serves all sessions; turns within a session are serialised so
// memory writes apply in turn order, while distinct sessions proceed fully
// in parallel.
type Intake struct {
	gw     llm.Gateway
	store  memory.Store
	notes  NoteGenerator
	parser *Parser
	log    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState tracks one session's turn state.  terminated is absorbing:
// once set, every further call answers with the closed message.
type sessionState struct {
	mu         sync.Mutex
	previous   *pkg.ParsedTurn
	terminated bool
}

// NewIntake constructs the orchestrator.
func NewIntake(gw llm.Gateway, store memory.Store, notes NoteGenerator, log *zap.Logger) *Intake {
	return &Intake{
		gw:       gw,
		store:    store,
		notes:    notes,
		parser:   NewParser(log),
		log:      log,
		sessions: make(map[string]*sessionState),
	}
}

func (i *Intake) session(threadID string) *sessionState {
	i.mu.Lock()
	defer i.mu.Unlock()
	st, ok := i.sessions[threadID]
	if !ok {
		st = &sessionState{}
		i.sessions[threadID] = st
	}
	return st
}

// HandlePatientMessage runs one turn for the given session and returns the
// reply plus the termination decision.  Remote and parse failures degrade to
// conversational fallback turns; they never surface as faults to the caller.
func (i *Intake) HandlePatientMessage(ctx context.Context, threadID, patientText string) (*pkg.TurnResult, error) {
	st := i.session(threadID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.terminated {
		// TERMINATED is absorbing: no remote call, no state change.
		return &pkg.TurnResult{Response: ClosedMessage, Terminate: true}, nil
	}

	memoryContext, err := i.store.GetContext(ctx, threadID)
	if err != nil {
		i.log.Warn("memory context read failed, continuing without",
			zap.String("session_id", threadID), zap.Error(err))
		memoryContext = ""
	}

	prompt := BuildFullPrompt(patientText, memoryContext, st.previous)

	raw, err := i.send(ctx, threadID, prompt)
	if err != nil {
		i.log.Error("gateway call failed after retry",
			zap.String("session_id", threadID), zap.Error(err))
		return &pkg.TurnResult{Response: ApologyMessage}, nil
	}

	parsed, err := i.parser.ParseTurn(raw, patientText)
	if err != nil {
		var mre *MalformedResponseError
		if errors.As(err, &mre) {
			i.log.Error("unparsable model reply, degrading turn",
				zap.String("session_id", threadID), zap.String("raw", mre.Raw))
			return &pkg.TurnResult{Response: RepeatMessage}, nil
		}
		return nil, err
	}

	if err := i.store.Write(ctx, threadID, parsed.MemoryCandidates); err != nil {
		// Soft failure: the turn's response is unaffected.
		i.log.Warn("memory write failed", zap.String("session_id", threadID), zap.Error(err))
	}
	st.previous = parsed

	result := &pkg.TurnResult{Response: parsed.Response, Terminate: parsed.Terminate}
	if parsed.Terminate {
		st.terminated = true
		i.generateNote(ctx, threadID, result)
	}
	return result, nil
}

// Terminate ends the session on explicit patient or operator request,
// independent of the model's own termination judgment.
func (i *Intake) Terminate(ctx context.Context, threadID string) (*pkg.TurnResult, error) {
	st := i.session(threadID)
	st.mu.Lock()
	defer st.mu.Unlock()

	result := &pkg.TurnResult{Response: ClosedMessage, Terminate: true}
	if st.terminated {
		return result, nil
	}
	st.terminated = true
	i.generateNote(ctx, threadID, result)
	return result, nil
}

// send issues the remote call with a single retry on gateway failure.
func (i *Intake) send(ctx context.Context, threadID, prompt string) (string, error) {
	raw, err := i.gw.Send(ctx, threadID, prompt)
	if err == nil {
		return raw, nil
	}
	var ge *llm.GatewayError
	if !errors.As(err, &ge) {
		return "", err
	}
	i.log.Warn("gateway call failed, retrying once",
		zap.String("session_id", threadID), zap.Error(err))
	return i.gw.Send(ctx, threadID, prompt)
}

// generateNote runs the scribe turn and attaches the outcome to the result.
// A note failure is logged and preserved for review but never blocks the
// patient's final response or the session ending.
func (i *Intake) generateNote(ctx context.Context, threadID string, result *pkg.TurnResult) {
	note, path, err := i.notes.GenerateNotes(ctx, threadID)
	if err != nil {
		i.log.Error("note generation failed",
			zap.String("session_id", threadID), zap.Error(err))
		return
	}
	result.Note = note
	result.NotePath = path
	i.log.Info("soap note generated",
		zap.String("session_id", threadID), zap.String("path", path))
}
