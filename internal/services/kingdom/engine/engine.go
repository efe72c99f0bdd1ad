// Package engine turns intents into candidate world states through a
// generative model.
//
// The engine contract is strict JSON: callers send the current document plus
// one intent, the model answers with an envelope holding updated_world_state
// (object, required), summary (string) and metadata (object). Replies that
// break the envelope are rejected, never patched up.
package engine

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
)

// Transformation is one validated engine reply.
type Transformation struct {
	// UpdatedState is the candidate document, exactly as the model wrote it.
	UpdatedState domain.Document
	// Summary is the normalized player-facing recap, never empty.
	Summary string
	// Metadata carries the model's side notes, nil when absent.
	Metadata json.RawMessage
}

// Engine produces candidate world states from intents.
type Engine interface {
	Transform(ctx context.Context, intent domain.Intent, current domain.Document) (Transformation, error)
}

// FallbackSummary stands in when the model omits a usable summary.
const FallbackSummary = "The kingdom stirs, but nothing noteworthy happened."

// summaryMaxRunes caps the normalized summary length.
const summaryMaxRunes = 220

// NormalizeSummary flattens a model summary into one short line: newlines
// become spaces, bullet markers vanish, runs of spaces collapse, and anything
// past the length cap is cut with an ellipsis.
func NormalizeSummary(text string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ").Replace(text)
	for _, marker := range []string{"•", "- ", "– ", "— "} {
		t = strings.ReplaceAll(t, marker, "")
	}
	for strings.Contains(t, "  ") {
		t = strings.ReplaceAll(t, "  ", " ")
	}
	t = strings.TrimSpace(t)

	runes := []rune(t)
	if len(runes) > summaryMaxRunes {
		t = strings.TrimRightFunc(string(runes[:summaryMaxRunes-1]), unicode.IsSpace) + "…"
	}
	return t
}
