package domain

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
)

// Limits bounds the committed document.
type Limits struct {
	// MaxBytes caps the serialized document size.
	MaxBytes int
	// MaxLogEntries caps events_log length; older entries compact away first.
	MaxLogEntries int
	// MaxFieldChars caps each string directly under context, in runes.
	MaxFieldChars int
}

// DefaultLimits returns the standard document bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:      200_000,
		MaxLogEntries: 100,
		MaxFieldChars: 300,
	}
}

// CompactionReport records what Compact changed.
type CompactionReport struct {
	// TrimmedEvents counts events_log entries removed, by the log cap or by
	// stripping the whole log.
	TrimmedEvents int
	// ClampedFields lists context keys whose values were shortened.
	ClampedFields []string
	// StrippedFields lists top-level keys removed to fit the byte budget.
	StrippedFields []string
	BytesBefore    int
	BytesAfter     int
}

// Changed reports whether compaction altered the document.
func (r CompactionReport) Changed() bool {
	return r.TrimmedEvents > 0 || len(r.ClampedFields) > 0 || len(r.StrippedFields) > 0
}

// clampMarker closes every clamped context value.
const clampMarker = "…[clamped]"

// essentialFields survive size compaction no matter what.
var essentialFields = map[string]bool{
	"kingdom_name":         true,
	"theme":                true,
	"day":                  true,
	"resources":            true,
	"events_log_compacted": true,
}

// Compact shrinks a document to fit the limits. Event trimming and context
// clamping always run; whole fields are stripped only when the document is
// still over MaxBytes afterward. Every trimmed or stripped events_log entry is
// credited to events_log_compacted. When only essential fields remain and the
// document still exceeds MaxBytes, Compact fails with a size budget error and
// the document is unusable.
func Compact(doc Document, limits Limits) (Document, CompactionReport, error) {
	report := CompactionReport{BytesBefore: doc.Size()}

	doc, trimmed, err := trimEventsLog(doc, limits.MaxLogEntries)
	if err != nil {
		return nil, report, err
	}
	report.TrimmedEvents += trimmed

	doc, report.ClampedFields, err = clampContextFields(doc, limits.MaxFieldChars)
	if err != nil {
		return nil, report, err
	}

	for limits.MaxBytes > 0 && doc.Size() > limits.MaxBytes {
		key := largestStrippableField(doc)
		if key == "" {
			return nil, report, apperrors.WithMetadata(apperrors.CodeSizeBudgetExceeded,
				"world state exceeds the size budget", map[string]string{
					"size":      strconv.Itoa(doc.Size()),
					"max_bytes": strconv.Itoa(limits.MaxBytes),
				})
		}
		if key == "events_log" {
			entries := len(doc.EventsLog())
			if doc, err = creditCompacted(doc, entries); err != nil {
				return nil, report, err
			}
			report.TrimmedEvents += entries
		}
		if doc, err = doc.Delete(EscapeKey(key)); err != nil {
			return nil, report, apperrors.Wrap(apperrors.CodeInvalidState, "strip field "+key, err)
		}
		report.StrippedFields = append(report.StrippedFields, key)
	}

	report.BytesAfter = doc.Size()
	return doc, report, nil
}

// trimEventsLog keeps the newest maxEntries log entries. Entries are ordered
// oldest first, so trimming drops from the front.
func trimEventsLog(doc Document, maxEntries int) (Document, int, error) {
	if maxEntries < 0 {
		maxEntries = 0
	}
	entries := doc.EventsLog()
	if len(entries) <= maxEntries {
		return doc, 0, nil
	}
	removed := len(entries) - maxEntries
	kept := make([]string, 0, maxEntries)
	for _, entry := range entries[removed:] {
		kept = append(kept, entry.Raw)
	}
	doc, err := doc.SetRaw("events_log", "["+strings.Join(kept, ",")+"]")
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInvalidState, "trim events_log", err)
	}
	doc, err = creditCompacted(doc, removed)
	if err != nil {
		return nil, 0, err
	}
	return doc, removed, nil
}

// clampContextFields shortens oversized string values directly under context
// to exactly maxChars runes, marker included. Limits too small to fit the
// marker truncate without it.
func clampContextFields(doc Document, maxChars int) (Document, []string, error) {
	if maxChars <= 0 {
		return doc, nil, nil
	}
	ctx := doc.Get("context")
	if !ctx.IsObject() {
		return doc, nil, nil
	}

	var clamped []string
	var iterErr error
	ctx.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			return true
		}
		runes := []rune(value.Str)
		if len(runes) <= maxChars {
			return true
		}
		short := string(runes[:maxChars])
		if marker := []rune(clampMarker); maxChars > len(marker) {
			short = string(runes[:maxChars-len(marker)]) + clampMarker
		}
		next, err := doc.Set("context."+EscapeKey(key.Str), short)
		if err != nil {
			iterErr = apperrors.Wrap(apperrors.CodeInvalidState, "clamp context field "+key.Str, err)
			return false
		}
		doc = next
		clamped = append(clamped, key.Str)
		return true
	})
	if iterErr != nil {
		return nil, nil, iterErr
	}
	return doc, clamped, nil
}

// largestStrippableField picks the non-essential top-level field taking the
// most bytes, smaller key winning ties. Empty when only essentials remain.
func largestStrippableField(doc Document) string {
	var best string
	var bestSize int
	for _, field := range doc.TopLevelFields() {
		if essentialFields[field.Key] {
			continue
		}
		size := len(field.Key) + len(field.Value.Raw) + 3 // quotes and colon
		if size > bestSize || (size == bestSize && field.Key < best) {
			best = field.Key
			bestSize = size
		}
	}
	return best
}

func creditCompacted(doc Document, removed int) (Document, error) {
	if removed <= 0 {
		return doc, nil
	}
	doc, err := doc.Set("events_log_compacted", doc.CompactedCount()+int64(removed))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidState, "credit events_log_compacted", err)
	}
	return doc, nil
}
