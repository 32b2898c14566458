package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neuroflow/internal/llm"
	"neuroflow/pkg"
)

// scribeGateway returns a canned scribe reply.
type scribeGateway struct {
	reply string
	err   error
}

func (g *scribeGateway) CreateSession(ctx context.Context) (string, error) { return "t", nil }
func (g *scribeGateway) Send(ctx context.Context, sessionID, prompt string) (string, error) {
	return g.reply, g.err
}
func (g *scribeGateway) AddMemory(ctx context.Context, sessionID, content string) error { return nil }

const scribeReply = `{
	"patient_id": "p-9",
	"subjective": {"chief_complaint": "insomnia", "history_of_present_illness": "2 weeks of poor sleep", "emotional_state": "anxious"},
	"objective": {"observations": "coherent, tired", "risk_factors": ["work stress"]},
	"assessment": {"summary": "sleep disturbance likely stress related", "differential_diagnosis": ["insomnia", "GAD"]},
	"plan": {"immediate_actions": "sleep hygiene guidance", "recommendations": "follow up in 2 weeks"}
}`

func TestGenerateNotesWritesDocument(t *testing.T) {
	dir := t.TempDir()
	nt := NewNoteTaker(&scribeGateway{reply: "```json\n" + scribeReply + "\n```"}, dir, zap.NewNop())

	note, path, err := nt.GenerateNotes(context.Background(), "thread-7")
	require.NoError(t, err)
	assert.Equal(t, "p-9", note.PatientID)
	assert.Equal(t, filepath.Join(dir, "thread-7_soap_note.md"), path)

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "## Subjective")
	assert.Contains(t, string(doc), "insomnia")
}

func TestGenerateNotesDecodeFailureKeepsRaw(t *testing.T) {
	nt := NewNoteTaker(&scribeGateway{reply: "The patient presented with..."}, t.TempDir(), zap.NewNop())

	_, _, err := nt.GenerateNotes(context.Background(), "t")
	var nge *NoteGenerationError
	require.ErrorAs(t, err, &nge)
	assert.Equal(t, "The patient presented with...", nge.Raw)
}

func TestGenerateNotesGatewayFailure(t *testing.T) {
	nt := NewNoteTaker(&scribeGateway{err: &llm.GatewayError{Op: "run", Err: errors.New("down")}}, t.TempDir(), zap.NewNop())

	_, _, err := nt.GenerateNotes(context.Background(), "t")
	var nge *NoteGenerationError
	require.ErrorAs(t, err, &nge)
}

func TestGenerateNotesDefaultsPatientID(t *testing.T) {
	reply := `{"subjective": {}, "objective": {}, "assessment": {}, "plan": {}}`
	nt := NewNoteTaker(&scribeGateway{reply: reply}, t.TempDir(), zap.NewNop())

	note, _, err := nt.GenerateNotes(context.Background(), "thread-42")
	require.NoError(t, err)
	assert.Equal(t, "thread-42", note.PatientID)
}

func TestRenderNoteFull(t *testing.T) {
	note := &pkg.ClinicalNote{
		PatientID: "p-1",
		Subjective: pkg.NoteSubjective{
			ChiefComplaint:          "insomnia",
			HistoryOfPresentIllness: "2 weeks",
			EmotionalState:          "anxious",
		},
		Objective:  pkg.NoteObjective{Observations: "tired", RiskFactors: []string{"work stress", "caffeine"}},
		Assessment: pkg.NoteAssessment{Summary: "stress related", DifferentialDiagnosis: []string{"insomnia"}},
		Plan:       pkg.NotePlan{ImmediateActions: "sleep hygiene", Recommendations: "follow up"},
	}
	doc := RenderNote(note)

	for _, heading := range []string{"## Subjective", "## Objective", "## Assessment", "## Plan"} {
		assert.Equal(t, 1, strings.Count(doc, heading), heading)
	}
	assert.Contains(t, doc, "work stress; caffeine")
	assert.NotContains(t, doc, "N/A")
}

func TestRenderNoteSubstitutesNA(t *testing.T) {
	doc := RenderNote(&pkg.ClinicalNote{})

	for _, heading := range []string{"## Subjective", "## Objective", "## Assessment", "## Plan"} {
		assert.Equal(t, 1, strings.Count(doc, heading), heading)
	}
	// Patient id + 9 leaf fields, all missing.
	assert.Equal(t, 10, strings.Count(doc, "N/A"))
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "- ") {
			assert.False(t, strings.HasSuffix(strings.TrimSpace(line), ":"), "blank leaf: %q", line)
		}
	}
}
