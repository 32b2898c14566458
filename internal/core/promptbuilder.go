package core

import (
	"strings"

	"neuroflow/pkg"
)

// BuildFullPrompt renders the complete prompt for one turn: the fixed
// instructional blocks, the dynamic plan derived from the previous parsed
// turn (or the default plan on turn one), the patient text, and the memory
// context.  Pure string construction, no side effects.
func BuildFullPrompt(patientText, memoryContext string, previous *pkg.ParsedTurn) string {
	plan := DefaultResponsePlan()
	if previous != nil {
		plan = BuildResponsePlan(previous)
	}

	var b strings.Builder
	b.WriteString("You are a clinician AI. Analyze the patient's text and craft your reply.\n\n")
	b.WriteString(IntentDefinitions)
	b.WriteString("\n\n")
	b.WriteString(EmotionDefinitions)
	b.WriteString("\n\n")
	b.WriteString(ResponseInstructions)
	b.WriteString("\n\n")
	b.WriteString(TerminationInstruction)
	b.WriteString("\n\n")
	writePlan(&b, plan)
	b.WriteString("\nPatient text:\n\"\"\"\n")
	b.WriteString(patientText)
	b.WriteString("\n\"\"\"\n\nRelevant memory context:\n\"\"\"\n")
	b.WriteString(memoryContext)
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString(OutputInstruction)
	return b.String()
}

func writePlan(b *strings.Builder, plan pkg.ResponsePlan) {
	b.WriteString("Response plan for this turn:\n")
	if plan.Tone != "" {
		b.WriteString("- Tone: " + plan.Tone + "\n")
	}
	for _, g := range plan.Goals {
		b.WriteString("- Goal: " + g + "\n")
	}
	for _, c := range plan.Constraints {
		b.WriteString("- Constraint: " + c + "\n")
	}
}
