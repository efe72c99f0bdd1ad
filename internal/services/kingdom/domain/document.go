package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document is a world state document as raw JSON bytes.
type Document []byte

// EmptyDocument returns a document holding an empty JSON object.
func EmptyDocument() Document {
	return Document("{}")
}

// IsObject reports whether the document is a JSON object.
func (d Document) IsObject() bool {
	if !gjson.ValidBytes(d) {
		return false
	}
	return gjson.ParseBytes(d).IsObject()
}

// Size returns the serialized byte length of the document.
func (d Document) Size() int {
	return len(d)
}

// Clone returns an independent copy of the document bytes.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	copy(out, d)
	return out
}

// Equal reports whether two documents are byte-identical.
func (d Document) Equal(other Document) bool {
	return bytes.Equal(d, other)
}

// KingdomName returns the kingdom_name field, or "" when unset.
func (d Document) KingdomName() string {
	return gjson.GetBytes(d, "kingdom_name").String()
}

// Theme returns the theme field, or "" when unset.
func (d Document) Theme() string {
	return gjson.GetBytes(d, "theme").String()
}

// CompactedCount returns the events_log_compacted counter, or 0 when unset.
func (d Document) CompactedCount() int64 {
	return gjson.GetBytes(d, "events_log_compacted").Int()
}

// EventsLog returns the entries of events_log. A missing or non-array field
// yields an empty slice.
func (d Document) EventsLog() []gjson.Result {
	log := gjson.GetBytes(d, "events_log")
	if !log.IsArray() {
		return nil
	}
	return log.Array()
}

// ContextValue returns the string stored under context.<key>, or "" when the
// key is absent or not a string.
func (d Document) ContextValue(key string) string {
	value := gjson.GetBytes(d, "context."+EscapeKey(key))
	if value.Type != gjson.String {
		return ""
	}
	return value.String()
}

// Get evaluates a gjson path against the document.
func (d Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d, path)
}

// Set returns a new document with value marshaled at path.
func (d Document) Set(path string, value any) (Document, error) {
	out, err := sjson.SetBytes(d, path, value)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetRaw returns a new document with the raw JSON fragment placed at path.
func (d Document) SetRaw(path string, raw string) (Document, error) {
	out, err := sjson.SetRawBytes(d, path, []byte(raw))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete returns a new document without the field at path. Deleting a missing
// path is a no-op.
func (d Document) Delete(path string) (Document, error) {
	out, err := sjson.DeleteBytes(d, path)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TopLevelFields returns the document's top-level keys with their values, in
// document order.
func (d Document) TopLevelFields() []Field {
	var fields []Field
	gjson.ParseBytes(d).ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, Field{Key: key.String(), Value: value})
		return true
	})
	return fields
}

// Field is one top-level document entry.
type Field struct {
	Key   string
	Value gjson.Result
}

// Pretty returns an indented rendering of the document for human inspection.
// Invalid JSON is returned unchanged.
func (d Document) Pretty() []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d, "", "  "); err != nil {
		return d
	}
	return buf.Bytes()
}

func (d Document) String() string {
	return string(d)
}

// keyEscaper quotes the characters gjson/sjson treat as path syntax so raw
// field names can be used as path components.
var keyEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

// EscapeKey converts a raw field name into a single-component gjson path.
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}
