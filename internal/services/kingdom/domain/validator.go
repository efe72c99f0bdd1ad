package domain

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
)

// Prior carries the committed facts a candidate document must not regress.
type Prior struct {
	// KingdomName is the committed name, or empty when no world exists yet.
	KingdomName string
	// CompactedCount is the committed events_log_compacted value.
	CompactedCount int64
}

// Validate checks an engine-produced candidate against the document rules and
// repairs what it can. Repairs are reported as warnings; only a candidate that
// is not a JSON object at all is rejected. A clean candidate passes through
// byte-identical.
func Validate(candidate Document, prior Prior) (Document, []string, error) {
	if !candidate.IsObject() {
		return nil, nil, apperrors.New(apperrors.CodeInvalidState, "world state is not a JSON object")
	}

	var warnings []string
	var err error

	candidate, warnings = repairEventsLog(candidate, warnings)
	candidate, warnings, err = repairCompactedCount(candidate, prior.CompactedCount, warnings)
	if err != nil {
		return nil, nil, err
	}
	candidate, warnings, err = repairKingdomName(candidate, prior.KingdomName, warnings)
	if err != nil {
		return nil, nil, err
	}
	return candidate, warnings, nil
}

// repairEventsLog forces events_log into array-of-objects shape. A missing log
// is left missing.
func repairEventsLog(doc Document, warnings []string) (Document, []string) {
	log := doc.Get("events_log")
	if !log.Exists() {
		return doc, warnings
	}
	if !log.IsArray() {
		repaired, err := doc.SetRaw("events_log", "[]")
		if err != nil {
			return doc, warnings
		}
		return repaired, append(warnings, "events_log was not an array; reset to empty")
	}

	entries := log.Array()
	kept := make([]string, 0, len(entries))
	for i, entry := range entries {
		if !entry.IsObject() {
			warnings = append(warnings, fmt.Sprintf("dropped non-object events_log entry at index %d", i))
			continue
		}
		kept = append(kept, entry.Raw)
	}
	if len(kept) == len(entries) {
		return doc, warnings
	}
	repaired, err := doc.SetRaw("events_log", "["+strings.Join(kept, ",")+"]")
	if err != nil {
		return doc, warnings
	}
	return repaired, warnings
}

// repairCompactedCount enforces that events_log_compacted is a non-negative
// integer that never shrinks. A missing counter stays missing unless the prior
// count demands it.
func repairCompactedCount(doc Document, prior int64, warnings []string) (Document, []string, error) {
	counter := doc.Get("events_log_compacted")
	restore := func(reason string) (Document, []string, error) {
		repaired, err := doc.Set("events_log_compacted", prior)
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.CodeInvalidState, "restore events_log_compacted", err)
		}
		return repaired, append(warnings, fmt.Sprintf("events_log_compacted %s; restored to %d", reason, prior)), nil
	}

	switch {
	case !counter.Exists():
		if prior > 0 {
			return restore("was missing")
		}
		return doc, warnings, nil
	case !isIntegerValue(counter) || counter.Int() < 0:
		return restore("was not a non-negative integer")
	case counter.Int() < prior:
		return restore(fmt.Sprintf("regressed from %d", prior))
	default:
		return doc, warnings, nil
	}
}

// repairKingdomName keeps the committed kingdom name stable once one exists.
func repairKingdomName(doc Document, prior string, warnings []string) (Document, []string, error) {
	if prior == "" {
		return doc, warnings, nil
	}
	name := doc.Get("kingdom_name")
	if name.Type == gjson.String && name.Str == prior {
		return doc, warnings, nil
	}
	repaired, err := doc.Set("kingdom_name", prior)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeInvalidState, "restore kingdom_name", err)
	}
	return repaired, append(warnings, fmt.Sprintf("kingdom_name changed; restored to %q", prior)), nil
}

// isIntegerValue reports whether a gjson value is a JSON number written as an
// integer. Fractional and exponent forms do not count even when the value is
// whole.
func isIntegerValue(v gjson.Result) bool {
	return v.Type == gjson.Number && !strings.ContainsAny(v.Raw, ".eE")
}
