package core

import "neuroflow/pkg"

// planner.go derives the tone, goals and constraints for the next reply from
// the previous turn's classified intent and emotion.

// BuildResponsePlan maps a parsed turn to a response plan.  Only some intents
// carry rules; the rest keep the zero-value plan.
func BuildResponsePlan(parsed *pkg.ParsedTurn) pkg.ResponsePlan {
	var plan pkg.ResponsePlan

	switch parsed.Intent {
	case pkg.IntentVenting:
		plan.Tone = "empathetic"
		plan.Goals = []string{"Validate feelings", "Encourage expression"}
		plan.Constraints = []string{"Do not give advice"}
	case pkg.IntentQuestion:
		plan.Tone = "clear"
		plan.Goals = []string{"Answer the question"}
		plan.Constraints = []string{"Be concise"}
	case pkg.IntentWorry:
		plan.Tone = "reassuring"
		plan.Goals = []string{"Acknowledge concern", "Reduce anxiety"}
		plan.Constraints = []string{"Avoid alarmist language"}
	}

	// Emotion augmentation applies after the intent rules, regardless of intent.
	if parsed.Emotion == pkg.EmotionAnxious {
		plan.Constraints = append(plan.Constraints, "Use grounding language")
	}
	return plan
}

// DefaultResponsePlan is used for the first turn of a session, before any
// intent or emotion has been observed.
func DefaultResponsePlan() pkg.ResponsePlan {
	return pkg.ResponsePlan{
		Tone:  "warm and professional",
		Goals: []string{"Establish rapport", "Invite the patient to share"},
		Constraints: []string{
			"Do not make assumptions",
			"Ask at most one open-ended question",
		},
	}
}
