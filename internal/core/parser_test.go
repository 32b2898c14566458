package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neuroflow/pkg"
)

const validReply = `{
	"intent": "worry",
	"emotion": "anxious",
	"response": "That sounds stressful. How long has the sleep trouble been going on?",
	"memory_candidates": {"short_term": ["work stress today"], "long_term": ["trouble sleeping"]},
	"entities": {"symptom": "insomnia"},
	"terminate": false
}`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(zap.NewNop())
}

func TestParseTurnValid(t *testing.T) {
	p := newTestParser(t)
	turn, err := p.ParseTurn(validReply, "I have trouble sleeping and feel anxious about work")
	require.NoError(t, err)

	assert.Equal(t, "I have trouble sleeping and feel anxious about work", turn.InputText)
	assert.Equal(t, pkg.IntentWorry, turn.Intent)
	assert.Equal(t, pkg.EmotionAnxious, turn.Emotion)
	assert.Equal(t, []string{"trouble sleeping"}, turn.MemoryCandidates.LongTerm)
	assert.Equal(t, []string{"work stress today"}, turn.MemoryCandidates.ShortTerm)
	assert.Equal(t, map[string]string{"symptom": "insomnia"}, turn.Entities)
	assert.False(t, turn.Terminate)
}

func TestParseTurnOptionalDefaults(t *testing.T) {
	p := newTestParser(t)
	turn, err := p.ParseTurn(`{
		"intent": "report",
		"emotion": "neutral",
		"response": "Noted.",
		"memory_candidates": {"short_term": [], "long_term": []}
	}`, "in")
	require.NoError(t, err)

	assert.NotNil(t, turn.Entities)
	assert.Empty(t, turn.Entities)
	assert.False(t, turn.Terminate)
	assert.NotNil(t, turn.MemoryCandidates.ShortTerm)
	assert.NotNil(t, turn.MemoryCandidates.LongTerm)
}

func TestParseTurnStripsFences(t *testing.T) {
	p := newTestParser(t)
	plain, err := p.ParseTurn(validReply, "in")
	require.NoError(t, err)

	fenced, err := p.ParseTurn("  \n```json\n"+validReply+"\n```  \n", "in")
	require.NoError(t, err)
	assert.Equal(t, plain, fenced)

	bare, err := p.ParseTurn("```\n"+validReply+"\n```", "in")
	require.NoError(t, err)
	assert.Equal(t, plain, bare)
}

func TestParseTurnMissingRequiredField(t *testing.T) {
	p := newTestParser(t)
	tests := []struct {
		name string
		raw  string
	}{
		{"missing intent", `{"emotion": "sad", "response": "x", "memory_candidates": {}}`},
		{"missing emotion", `{"intent": "report", "response": "x", "memory_candidates": {}}`},
		{"missing response", `{"intent": "report", "emotion": "sad", "memory_candidates": {}}`},
		{"missing memory_candidates", `{"intent": "report", "emotion": "sad", "response": "x"}`},
		{"not json at all", `the patient seems fine`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseTurn(tt.raw, "in")
			var mre *MalformedResponseError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, tt.raw, mre.Raw)
		})
	}
}

func TestParseTurnStringEncodedCandidates(t *testing.T) {
	p := newTestParser(t)
	turn, err := p.ParseTurn(`{
		"intent": "report",
		"emotion": "neutral",
		"response": "ok",
		"memory_candidates": "{\"short_term\": [], \"long_term\": [\"x\"]}"
	}`, "in")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, turn.MemoryCandidates.LongTerm)
	assert.Empty(t, turn.MemoryCandidates.ShortTerm)
}

func TestParseTurnUnparsableCandidatesDegrade(t *testing.T) {
	p := newTestParser(t)
	turn, err := p.ParseTurn(`{
		"intent": "report",
		"emotion": "neutral",
		"response": "ok",
		"memory_candidates": "not json"
	}`, "in")
	require.NoError(t, err)
	assert.Equal(t, pkg.MemoryCandidates{ShortTerm: []string{}, LongTerm: []string{}}, turn.MemoryCandidates)
}

func TestParseTurnNormalisesUnknownEnums(t *testing.T) {
	p := newTestParser(t)
	turn, err := p.ParseTurn(`{
		"intent": "ranting",
		"emotion": "exuberant",
		"response": "ok",
		"memory_candidates": {"short_term": [], "long_term": []}
	}`, "in")
	require.NoError(t, err)
	assert.Equal(t, pkg.IntentOther, turn.Intent)
	assert.Equal(t, pkg.EmotionNeutral, turn.Emotion)
}
