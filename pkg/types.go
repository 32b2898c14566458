package pkg

import "time"

// Intent is the coarse communicative purpose of a single patient utterance.
type Intent string

const (
	IntentVenting    Intent = "venting"
	IntentQuestion   Intent = "question"
	IntentReport     Intent = "report"
	IntentReflection Intent = "reflection"
	IntentGoal       Intent = "goal"
	IntentNarrative  Intent = "narrative"
	IntentWorry      Intent = "worry"
	IntentOther      Intent = "other"
)

var knownIntents = map[Intent]struct{}{
	IntentVenting: {}, IntentQuestion: {}, IntentReport: {}, IntentReflection: {},
	IntentGoal: {}, IntentNarrative: {}, IntentWorry: {}, IntentOther: {},
}

// Known reports whether the intent is a member of the closed taxonomy.
func (i Intent) Known() bool {
	_, ok := knownIntents[i]
	return ok
}

// Emotion is the coarse affective state detected for one turn.
type Emotion string

const (
	EmotionAnxious      Emotion = "anxious"
	EmotionSad          Emotion = "sad"
	EmotionHappy        Emotion = "happy"
	EmotionNeutral      Emotion = "neutral"
	EmotionAngry        Emotion = "angry"
	EmotionGuilty       Emotion = "guilty"
	EmotionHopeful      Emotion = "hopeful"
	EmotionFearful      Emotion = "fearful"
	EmotionOverwhelmed  Emotion = "overwhelmed"
	EmotionLonely       Emotion = "lonely"
	EmotionAshamed      Emotion = "ashamed"
	EmotionRelieved     Emotion = "relieved"
	EmotionConfused     Emotion = "confused"
	EmotionFrustrated   Emotion = "frustrated"
	EmotionNumb         Emotion = "numb"
	EmotionGrateful     Emotion = "grateful"
	EmotionMotivated    Emotion = "motivated"
	EmotionHopeless     Emotion = "hopeless"
	EmotionResentful    Emotion = "resentful"
	EmotionCalm         Emotion = "calm"
	EmotionSelfCritical Emotion = "self-critical"
	EmotionTrusting     Emotion = "trusting"
	EmotionDisappointed Emotion = "disappointed"
)

var knownEmotions = map[Emotion]struct{}{
	EmotionAnxious: {}, EmotionSad: {}, EmotionHappy: {}, EmotionNeutral: {},
	EmotionAngry: {}, EmotionGuilty: {}, EmotionHopeful: {}, EmotionFearful: {},
	EmotionOverwhelmed: {}, EmotionLonely: {}, EmotionAshamed: {}, EmotionRelieved: {},
	EmotionConfused: {}, EmotionFrustrated: {}, EmotionNumb: {}, EmotionGrateful: {},
	EmotionMotivated: {}, EmotionHopeless: {}, EmotionResentful: {}, EmotionCalm: {},
	EmotionSelfCritical: {}, EmotionTrusting: {}, EmotionDisappointed: {},
}

// Known reports whether the emotion is a member of the closed taxonomy.
func (e Emotion) Known() bool {
	_, ok := knownEmotions[e]
	return ok
}

// MemoryCandidates holds facts extracted from one turn.  ShortTerm items are
// reasoning context for the current turn only and are never persisted;
// LongTerm items become part of the patient's durable memory.
type MemoryCandidates struct {
	ShortTerm []string `json:"short_term"`
	LongTerm  []string `json:"long_term"`
}

// ParsedTurn is the structured result of a single chat turn as returned by
// the model and normalised by the response parser.  Both memory candidate
// slices are always non-nil and Entities is always a non-nil map.
type ParsedTurn struct {
	InputText        string            `json:"input_text"`
	Intent           Intent            `json:"intent"`
	Emotion          Emotion           `json:"emotion"`
	Response         string            `json:"response"`
	MemoryCandidates MemoryCandidates  `json:"memory_candidates"`
	Entities         map[string]string `json:"entities"`
	Terminate        bool              `json:"terminate"`
}

// ResponsePlan shapes how the assistant should phrase its next reply.  A plan
// is derived fresh each turn from the previous ParsedTurn (or a fixed default
// on turn one), consumed by the prompt builder, and discarded.
type ResponsePlan struct {
	Tone        string            `json:"tone"`
	Goals       []string          `json:"goals"`
	Constraints []string          `json:"constraints"`
	Context     map[string]string `json:"context,omitempty"`
}

// NoteSubjective is the S section of a SOAP note.
type NoteSubjective struct {
	ChiefComplaint          string `json:"chief_complaint"`
	HistoryOfPresentIllness string `json:"history_of_present_illness"`
	EmotionalState          string `json:"emotional_state"`
}

// NoteObjective is the O section of a SOAP note.
type NoteObjective struct {
	Observations string   `json:"observations"`
	RiskFactors  []string `json:"risk_factors"`
}

// NoteAssessment is the A section of a SOAP note.
type NoteAssessment struct {
	Summary               string   `json:"summary"`
	DifferentialDiagnosis []string `json:"differential_diagnosis"`
}

// NotePlan is the P section of a SOAP note.
type NotePlan struct {
	ImmediateActions string `json:"immediate_actions"`
	Recommendations  string `json:"recommendations"`
}

// ClinicalNote is the structured end-of-session note produced by the scribe
// turn.  It is produced once at termination and never mutated afterwards.
type ClinicalNote struct {
	PatientID  string         `json:"patient_id"`
	Subjective NoteSubjective `json:"subjective"`
	Objective  NoteObjective  `json:"objective"`
	Assessment NoteAssessment `json:"assessment"`
	Plan       NotePlan       `json:"plan"`
}

// TurnResult is what the orchestrator returns to its caller for one patient
// utterance.  Note and NotePath are set only on the terminating turn.
type TurnResult struct {
	Response  string        `json:"response"`
	Terminate bool          `json:"terminate"`
	Note      *ClinicalNote `json:"note,omitempty"`
	NotePath  string        `json:"note_path,omitempty"`
}

// MessageRole describes who authored a transcript message.
type MessageRole string

const (
	RolePatient   MessageRole = "patient"
	RoleAssistant MessageRole = "assistant"
)

// Session represents one patient intake conversation.  The ID is the thread
// identifier shared with the remote LLM service.
type Session struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	Terminated bool       `json:"terminated"`
}

// Message is one transcript entry within a session.
type Message struct {
	ID        int64       `json:"id"`
	SessionID string      `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// ChatRequest is the body of a patient message POST.
type ChatRequest struct {
	Content string `json:"content"`
}
