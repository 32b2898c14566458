package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"neuroflow/pkg"
)

// MalformedResponseError reports a model reply that could not be decoded
// into a turn even after fence stripping.  Raw preserves the original text
// so callers can retry the call or inspect what was produced.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// rawTurn mirrors the JSON shape the model is instructed to return.
// memory_candidates is raw because the model occasionally returns it as a
// JSON-encoded string instead of an object.
type rawTurn struct {
	Intent           *string           `json:"intent"`
	Emotion          *string           `json:"emotion"`
	Response         *string           `json:"response"`
	MemoryCandidates json.RawMessage   `json:"memory_candidates"`
	Entities         map[string]string `json:"entities"`
	Terminate        bool              `json:"terminate"`
}

// StripFences removes leading/trailing markdown code-fence markers and
// surrounding whitespace from a model reply.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Parser turns raw model replies into normalised ParsedTurns.
type Parser struct {
	log *zap.Logger
}

// NewParser constructs a Parser.
func NewParser(log *zap.Logger) *Parser {
	return &Parser{log: log}
}

// ParseTurn decodes a raw model reply into a ParsedTurn.
//
// The required fields are intent, emotion, response and memory_candidates;
// a missing field or undecodable JSON yields a *MalformedResponseError.
// Entities defaults to an empty map and terminate to false.  Unknown intent
// or emotion values are normalised to "other"/"neutral" rather than failing
// the turn.
func (p *Parser) ParseTurn(raw, inputText string) (*pkg.ParsedTurn, error) {
	text := StripFences(raw)

	var rt rawTurn
	if err := json.Unmarshal([]byte(text), &rt); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	if rt.Intent == nil || rt.Emotion == nil || rt.Response == nil || len(rt.MemoryCandidates) == 0 {
		return nil, &MalformedResponseError{Raw: raw, Err: fmt.Errorf("missing required fields")}
	}

	turn := &pkg.ParsedTurn{
		InputText:        inputText,
		Intent:           pkg.Intent(*rt.Intent),
		Emotion:          pkg.Emotion(*rt.Emotion),
		Response:         *rt.Response,
		MemoryCandidates: p.decodeCandidates(rt.MemoryCandidates),
		Entities:         rt.Entities,
		Terminate:        rt.Terminate,
	}
	if turn.Entities == nil {
		turn.Entities = map[string]string{}
	}
	if !turn.Intent.Known() {
		p.log.Warn("unknown intent, normalising", zap.String("intent", string(turn.Intent)))
		turn.Intent = pkg.IntentOther
	}
	if !turn.Emotion.Known() {
		p.log.Warn("unknown emotion, normalising", zap.String("emotion", string(turn.Emotion)))
		turn.Emotion = pkg.EmotionNeutral
	}
	return turn, nil
}

// decodeCandidates handles the observed remote-model quirk of returning
// memory_candidates as a JSON-encoded string.  A hard failure here would
// break the whole turn, so an unrecoverable value degrades to empty
// candidates instead: the turn survives at the cost of its memory writes.
func (p *Parser) decodeCandidates(raw json.RawMessage) pkg.MemoryCandidates {
	mc := pkg.MemoryCandidates{ShortTerm: []string{}, LongTerm: []string{}}
	if err := json.Unmarshal(raw, &mc); err == nil {
		return normalizeCandidates(mc)
	}
	// Second attempt: string-wrapped object.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var inner pkg.MemoryCandidates
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return normalizeCandidates(inner)
		}
	}
	p.log.Warn("unparsable memory_candidates, dropping this turn's memory",
		zap.String("raw", string(raw)))
	return pkg.MemoryCandidates{ShortTerm: []string{}, LongTerm: []string{}}
}

func normalizeCandidates(mc pkg.MemoryCandidates) pkg.MemoryCandidates {
	if mc.ShortTerm == nil {
		mc.ShortTerm = []string{}
	}
	if mc.LongTerm == nil {
		mc.LongTerm = []string{}
	}
	return mc
}
