package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"neuroflow/internal/llm"
	"neuroflow/pkg"
)

// NoteGenerationError reports a scribe-mode turn whose reply could not be
// decoded into a clinical note.  Raw preserves the model output for manual
// review.
type NoteGenerationError struct {
	Raw string
	Err error
}

func (e *NoteGenerationError) Error() string {
	return fmt.Sprintf("note generation: %v", e.Err)
}

func (e *NoteGenerationError) Unwrap() error { return e.Err }

// NoteTaker produces the end-of-session SOAP note.  It issues one scribe-mode
// prompt over the session thread, decodes the structured note, renders it to
// a Markdown document and writes one file per terminated session.
type NoteTaker struct {
	gw        llm.Gateway
	outputDir string
	log       *zap.Logger
}

// NewNoteTaker constructs a NoteTaker writing documents under outputDir.
func NewNoteTaker(gw llm.Gateway, outputDir string, log *zap.Logger) *NoteTaker {
	return &NoteTaker{gw: gw, outputDir: outputDir, log: log}
}

// GenerateNotes summarises the session into a ClinicalNote and exports the
// rendered document to {outputDir}/{sessionID}_soap_note.md.  It returns the
// note and the document path.
func (n *NoteTaker) GenerateNotes(ctx context.Context, sessionID string) (*pkg.ClinicalNote, string, error) {
	raw, err := n.gw.Send(ctx, sessionID, ScribeInstruction)
	if err != nil {
		return nil, "", &NoteGenerationError{Err: err}
	}

	text := StripFences(raw)
	var note pkg.ClinicalNote
	if err := json.Unmarshal([]byte(text), &note); err != nil {
		return nil, "", &NoteGenerationError{Raw: raw, Err: err}
	}
	if note.PatientID == "" {
		note.PatientID = sessionID
	}

	doc := RenderNote(&note)
	if err := os.MkdirAll(n.outputDir, 0o755); err != nil {
		return &note, "", fmt.Errorf("creating note directory: %w", err)
	}
	path := filepath.Join(n.outputDir, sessionID+"_soap_note.md")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return &note, "", fmt.Errorf("writing note document: %w", err)
	}
	return &note, path, nil
}

// RenderNote renders a ClinicalNote as a Markdown document with one section
// per SOAP category.  Missing leaf fields render as "N/A", never blank.
func RenderNote(note *pkg.ClinicalNote) string {
	var b strings.Builder
	b.WriteString("# SOAP Note\n\n")
	b.WriteString("Patient ID: " + orNA(note.PatientID) + "\n\n")

	b.WriteString("## Subjective\n\n")
	b.WriteString("- Chief complaint: " + orNA(note.Subjective.ChiefComplaint) + "\n")
	b.WriteString("- History of present illness: " + orNA(note.Subjective.HistoryOfPresentIllness) + "\n")
	b.WriteString("- Emotional state: " + orNA(note.Subjective.EmotionalState) + "\n\n")

	b.WriteString("## Objective\n\n")
	b.WriteString("- Observations: " + orNA(note.Objective.Observations) + "\n")
	b.WriteString("- Risk factors: " + listOrNA(note.Objective.RiskFactors) + "\n\n")

	b.WriteString("## Assessment\n\n")
	b.WriteString("- Summary: " + orNA(note.Assessment.Summary) + "\n")
	b.WriteString("- Differential diagnosis: " + listOrNA(note.Assessment.DifferentialDiagnosis) + "\n\n")

	b.WriteString("## Plan\n\n")
	b.WriteString("- Immediate actions: " + orNA(note.Plan.ImmediateActions) + "\n")
	b.WriteString("- Recommendations: " + orNA(note.Plan.Recommendations) + "\n")
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func listOrNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, "; ")
}
