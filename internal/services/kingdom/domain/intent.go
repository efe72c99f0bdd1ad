package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
)

// Mode identifies how the transformation engine should treat an intent.
type Mode string

const (
	// ModeCreate builds a fresh world from the init template.
	ModeCreate Mode = "create"
	// ModeAct performs a named action against the current world.
	ModeAct Mode = "act"
	// ModeQuery asks a question with minimal state change.
	ModeQuery Mode = "query"
	// ModeNarrate requests the daily story update. On the wire it is a query
	// carrying the fixed narration question.
	ModeNarrate Mode = "narrate"
	// ModeCheat applies requested changes verbatim, outside normal bounds.
	ModeCheat Mode = "cheat"
	// ModePatch marks a local document mutation that skips the engine. It
	// never reaches the wire.
	ModePatch Mode = "patch"
)

// Intent is one desired world mutation, expressed for the engine.
type Intent struct {
	Mode     Mode
	Name     string         // action or cheat name; kingdom name for create
	Question string         // query and narrate modes
	Theme    string         // create mode only
	Params   map[string]any // action and cheat modes
}

// narrationQuestion is the fixed daily-update request sent for narrate mode.
const narrationQuestion = "Give me today’s update in 1–2 short sentences (<=180 chars) with 1–2 fitting emojis. " +
	"No headings, no bullet lists. End with: Options: (1) <short>; (2) <short>; (3) <short>."

// NewCreateIntent builds the world-creation intent.
func NewCreateIntent(kingdomName, theme string) Intent {
	return Intent{Mode: ModeCreate, Name: kingdomName, Theme: theme}
}

// NewActionIntent builds an action intent with optional parameters.
func NewActionIntent(action string, params map[string]any) Intent {
	return Intent{Mode: ModeAct, Name: action, Params: params}
}

// NewQueryIntent builds a question intent.
func NewQueryIntent(question string) Intent {
	return Intent{Mode: ModeQuery, Question: question}
}

// NewNarrateIntent builds the daily narration intent with an optional style
// hint appended to the fixed narration question.
func NewNarrateIntent(style string) Intent {
	question := narrationQuestion
	if style = strings.TrimSpace(style); style != "" {
		question = fmt.Sprintf("%s Style: %s.", question, style)
	}
	return Intent{Mode: ModeNarrate, Question: question}
}

// NewCheatIntent builds a cheat intent with optional parameters.
func NewCheatIntent(name string, params map[string]any) Intent {
	return Intent{Mode: ModeCheat, Name: name, Params: params}
}

// NormalizeIntent validates and canonicalizes an intent. Required fields are
// mode-dependent; string fields are trimmed.
func NormalizeIntent(intent Intent) (Intent, error) {
	intent.Name = strings.TrimSpace(intent.Name)
	intent.Question = strings.TrimSpace(intent.Question)
	intent.Theme = strings.TrimSpace(intent.Theme)

	switch intent.Mode {
	case ModeCreate:
		if intent.Name == "" {
			return Intent{}, apperrors.New(apperrors.CodeKingdomNameEmpty, "kingdom name is required")
		}
	case ModeAct:
		if intent.Name == "" {
			return Intent{}, apperrors.New(apperrors.CodeActionEmpty, "action is required")
		}
	case ModeQuery:
		if intent.Question == "" {
			return Intent{}, apperrors.New(apperrors.CodeQuestionEmpty, "question is required")
		}
	case ModeNarrate:
		if intent.Question == "" {
			intent.Question = narrationQuestion
		}
	case ModeCheat:
		if intent.Name == "" {
			return Intent{}, apperrors.New(apperrors.CodeCheatNameEmpty, "cheat name is required")
		}
	case ModePatch:
		if intent.Name == "" {
			return Intent{}, apperrors.New(apperrors.CodePatchNameEmpty, "patch name is required")
		}
	default:
		return Intent{}, apperrors.WithMetadata(apperrors.CodeIntentInvalidMode, "intent mode is invalid",
			map[string]string{"mode": string(intent.Mode)})
	}
	return intent, nil
}

// WirePayload renders the intent as the JSON object the engine contract
// expects. Narrate maps to a query and create maps to init so the engine-side
// prompt vocabulary stays fixed.
func (i Intent) WirePayload() (json.RawMessage, error) {
	var payload map[string]any
	switch i.Mode {
	case ModeCreate:
		payload = map[string]any{"type": "init", "kingdom_name": i.Name}
		if i.Theme != "" {
			payload["theme"] = i.Theme
		}
	case ModeAct:
		payload = map[string]any{"type": "action", "name": i.Name, "params": i.wireParams()}
	case ModeQuery, ModeNarrate:
		payload = map[string]any{"type": "query", "question": i.Question}
	case ModeCheat:
		payload = map[string]any{"type": "cheat", "name": i.Name, "params": i.wireParams()}
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeIntentInvalidMode, "intent mode has no wire form",
			map[string]string{"mode": string(i.Mode)})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal intent payload: %w", err)
	}
	return raw, nil
}

func (i Intent) wireParams() map[string]any {
	if i.Params == nil {
		return map[string]any{}
	}
	return i.Params
}
