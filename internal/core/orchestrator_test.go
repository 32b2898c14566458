package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neuroflow/internal/llm"
	"neuroflow/pkg"
)

// fakeGateway implements llm.Gateway with function fields.
type fakeGateway struct {
	mu       sync.Mutex
	sends    []string
	SendFn   func(call int, prompt string) (string, error)
	memories []string
}

func (f *fakeGateway) CreateSession(ctx context.Context) (string, error) { return "thread-1", nil }

func (f *fakeGateway) Send(ctx context.Context, sessionID, prompt string) (string, error) {
	f.mu.Lock()
	f.sends = append(f.sends, prompt)
	call := len(f.sends)
	f.mu.Unlock()
	return f.SendFn(call, prompt)
}

func (f *fakeGateway) AddMemory(ctx context.Context, sessionID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memories = append(f.memories, content)
	return nil
}

// fakeStore records writes and serves a fixed context.
type fakeStore struct {
	mu       sync.Mutex
	context  string
	writes   []pkg.MemoryCandidates
	writeErr error
}

func (f *fakeStore) GetContext(ctx context.Context, sessionID string) (string, error) {
	return f.context, nil
}

func (f *fakeStore) Write(ctx context.Context, sessionID string, mc pkg.MemoryCandidates) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, mc)
	return f.writeErr
}

// fakeNotes counts scribe invocations.
type fakeNotes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeNotes) GenerateNotes(ctx context.Context, sessionID string) (*pkg.ClinicalNote, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return &pkg.ClinicalNote{PatientID: sessionID}, sessionID + "_soap_note.md", nil
}

func reply(terminate bool) string {
	if terminate {
		return `{"intent":"report","emotion":"calm","response":"Take care.","memory_candidates":{"short_term":[],"long_term":[]},"terminate":true}`
	}
	return `{"intent":"worry","emotion":"anxious","response":"That sounds hard. When did it start?","memory_candidates":{"short_term":[],"long_term":["trouble sleeping","anxious about work"]},"terminate":false}`
}

func newTestIntake(gw *fakeGateway, store *fakeStore, notes *fakeNotes) *Intake {
	return NewIntake(gw, store, notes, zap.NewNop())
}

func TestHandlePatientMessageHappyPath(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) { return reply(false), nil }}
	store := &fakeStore{context: "known: shift worker"}
	notes := &fakeNotes{}
	intake := newTestIntake(gw, store, notes)

	result, err := intake.HandlePatientMessage(context.Background(), "t1", "I have trouble sleeping and feel anxious about work")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Response)
	assert.False(t, result.Terminate)
	require.Len(t, store.writes, 1)
	assert.Equal(t, []string{"trouble sleeping", "anxious about work"}, store.writes[0].LongTerm)
	// The memory context reached the prompt.
	require.Len(t, gw.sends, 1)
	assert.Contains(t, gw.sends[0], "known: shift worker")
	assert.Zero(t, notes.calls)
}

func TestHandlePatientMessageSecondTurnUsesPreviousPlan(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) { return reply(false), nil }}
	intake := newTestIntake(gw, &fakeStore{}, &fakeNotes{})

	_, err := intake.HandlePatientMessage(context.Background(), "t1", "first")
	require.NoError(t, err)
	_, err = intake.HandlePatientMessage(context.Background(), "t1", "second")
	require.NoError(t, err)

	require.Len(t, gw.sends, 2)
	assert.Contains(t, gw.sends[0], "warm and professional")
	// First turn classified as worry/anxious, so the second prompt plans for it.
	assert.Contains(t, gw.sends[1], "- Tone: reassuring")
	assert.Contains(t, gw.sends[1], "- Constraint: Use grounding language")
}

func TestHandlePatientMessageRetriesGatewayOnce(t *testing.T) {
	gw := &fakeGateway{SendFn: func(call int, _ string) (string, error) {
		if call == 1 {
			return "", &llm.GatewayError{Op: "run", Err: errors.New("timeout")}
		}
		return reply(false), nil
	}}
	intake := newTestIntake(gw, &fakeStore{}, &fakeNotes{})

	result, err := intake.HandlePatientMessage(context.Background(), "t1", "hello")
	require.NoError(t, err)
	assert.Len(t, gw.sends, 2)
	assert.False(t, result.Terminate)
	assert.NotEqual(t, ApologyMessage, result.Response)
}

func TestHandlePatientMessageApologisesAfterRepeatedFailure(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) {
		return "", &llm.GatewayError{Op: "run", Err: errors.New("down")}
	}}
	store := &fakeStore{}
	intake := newTestIntake(gw, store, &fakeNotes{})

	result, err := intake.HandlePatientMessage(context.Background(), "t1", "hello")
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, result.Response)
	assert.False(t, result.Terminate)
	assert.Empty(t, store.writes)
}

func TestHandlePatientMessageDegradesOnMalformedReply(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) { return "I think the patient is fine", nil }}
	store := &fakeStore{}
	intake := newTestIntake(gw, store, &fakeNotes{})

	result, err := intake.HandlePatientMessage(context.Background(), "t1", "hello")
	require.NoError(t, err)
	assert.Equal(t, RepeatMessage, result.Response)
	assert.False(t, result.Terminate)
	assert.Empty(t, store.writes)
}

func TestHandlePatientMessageMemoryFailureIsSoft(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) { return reply(false), nil }}
	store := &fakeStore{writeErr: errors.New("disk full")}
	intake := newTestIntake(gw, store, &fakeNotes{})

	result, err := intake.HandlePatientMessage(context.Background(), "t1", "hello")
	require.NoError(t, err)
	assert.NotEqual(t, ApologyMessage, result.Response)
	assert.False(t, result.Terminate)
}

func TestTerminationIsAbsorbing(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) { return reply(true), nil }}
	notes := &fakeNotes{}
	intake := newTestIntake(gw, &fakeStore{}, notes)

	result, err := intake.HandlePatientMessage(context.Background(), "t1", "thanks, that is everything")
	require.NoError(t, err)
	assert.True(t, result.Terminate)
	require.NotNil(t, result.Note)
	assert.Equal(t, "t1_soap_note.md", result.NotePath)
	assert.Equal(t, 1, notes.calls)

	// Further messages must not trigger any remote call or another note.
	again, err := intake.HandlePatientMessage(context.Background(), "t1", "one more thing")
	require.NoError(t, err)
	assert.True(t, again.Terminate)
	assert.Equal(t, ClosedMessage, again.Response)
	assert.Len(t, gw.sends, 1)
	assert.Equal(t, 1, notes.calls)
}

func TestNoteFailureDoesNotBlockTermination(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) { return reply(true), nil }}
	notes := &fakeNotes{err: &NoteGenerationError{Raw: "garbage", Err: errors.New("decode")}}
	intake := newTestIntake(gw, &fakeStore{}, notes)

	result, err := intake.HandlePatientMessage(context.Background(), "t1", "bye")
	require.NoError(t, err)
	assert.True(t, result.Terminate)
	assert.Equal(t, "Take care.", result.Response)
	assert.Nil(t, result.Note)

	// Still absorbed.
	again, _ := intake.HandlePatientMessage(context.Background(), "t1", "hello?")
	assert.Equal(t, ClosedMessage, again.Response)
}

func TestManualTerminate(t *testing.T) {
	gw := &fakeGateway{SendFn: func(int, string) (string, error) { return reply(false), nil }}
	notes := &fakeNotes{}
	intake := newTestIntake(gw, &fakeStore{}, notes)

	_, err := intake.HandlePatientMessage(context.Background(), "t1", "hello")
	require.NoError(t, err)

	result, err := intake.Terminate(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, result.Terminate)
	assert.Equal(t, 1, notes.calls)

	// Idempotent: a second manual terminate produces no second note.
	_, err = intake.Terminate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, notes.calls)
}

func TestSessionsAreIndependent(t *testing.T) {
	gw := &fakeGateway{SendFn: func(call int, _ string) (string, error) { return reply(call == 1), nil }}
	notes := &fakeNotes{}
	intake := newTestIntake(gw, &fakeStore{}, notes)

	// First session terminates immediately.
	r1, err := intake.HandlePatientMessage(context.Background(), "a", "bye")
	require.NoError(t, err)
	assert.True(t, r1.Terminate)

	// A different session is unaffected.
	r2, err := intake.HandlePatientMessage(context.Background(), "b", "hello")
	require.NoError(t, err)
	assert.False(t, r2.Terminate)
	assert.NotEqual(t, ClosedMessage, r2.Response)
}
