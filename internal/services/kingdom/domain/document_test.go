package domain

import (
	"testing"
)

func TestDocumentIsObject(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{name: "empty object", doc: EmptyDocument(), want: true},
		{name: "populated object", doc: Document(`{"kingdom_name":"Eldoria"}`), want: true},
		{name: "array", doc: Document(`[1,2]`), want: false},
		{name: "string", doc: Document(`"hello"`), want: false},
		{name: "number", doc: Document(`7`), want: false},
		{name: "malformed", doc: Document(`{"a":`), want: false},
		{name: "empty bytes", doc: Document(""), want: false},
		{name: "nil", doc: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.IsObject(); got != tt.want {
				t.Errorf("IsObject() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocumentClone(t *testing.T) {
	original := Document(`{"day":1}`)
	clone := original.Clone()

	if !clone.Equal(original) {
		t.Fatalf("clone = %s, want %s", clone, original)
	}

	clone[1] = 'x'
	if original.Equal(clone) {
		t.Error("mutating the clone changed the original")
	}
}

func TestDocumentAccessors(t *testing.T) {
	doc := Document(`{
		"kingdom_name": "Eldoria",
		"theme": "high fantasy",
		"day": 12,
		"events_log_compacted": 40,
		"events_log": [{"day": 11, "event": "rain"}, {"day": 12, "event": "market"}],
		"context": {"weather": "14°C, clear sky, wind 8 km/h", "population": 400}
	}`)

	if got := doc.KingdomName(); got != "Eldoria" {
		t.Errorf("KingdomName() = %q, want %q", got, "Eldoria")
	}
	if got := doc.Theme(); got != "high fantasy" {
		t.Errorf("Theme() = %q, want %q", got, "high fantasy")
	}
	if got := doc.CompactedCount(); got != 40 {
		t.Errorf("CompactedCount() = %d, want 40", got)
	}
	if got := len(doc.EventsLog()); got != 2 {
		t.Errorf("len(EventsLog()) = %d, want 2", got)
	}
	if got := doc.EventsLog()[1].Get("event").String(); got != "market" {
		t.Errorf("last event = %q, want %q", got, "market")
	}
	if got := doc.ContextValue("weather"); got != "14°C, clear sky, wind 8 km/h" {
		t.Errorf("ContextValue(weather) = %q", got)
	}
	if got := doc.ContextValue("population"); got != "" {
		t.Errorf("ContextValue(population) = %q, want empty for non-string", got)
	}
	if got := doc.ContextValue("missing"); got != "" {
		t.Errorf("ContextValue(missing) = %q, want empty", got)
	}
}

func TestDocumentCompactedCountDefaults(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want int64
	}{
		{name: "missing", doc: Document(`{}`), want: 0},
		{name: "zero", doc: Document(`{"events_log_compacted":0}`), want: 0},
		{name: "set", doc: Document(`{"events_log_compacted":17}`), want: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.CompactedCount(); got != tt.want {
				t.Errorf("CompactedCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDocumentSetAndDelete(t *testing.T) {
	doc := EmptyDocument()

	doc, err := doc.Set("kingdom_name", "Eldoria")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	doc, err = doc.SetRaw("resources", `{"gold":100}`)
	if err != nil {
		t.Fatalf("SetRaw() error = %v", err)
	}

	if got := doc.KingdomName(); got != "Eldoria" {
		t.Errorf("KingdomName() = %q after Set", got)
	}
	if got := doc.Get("resources.gold").Int(); got != 100 {
		t.Errorf("resources.gold = %d, want 100", got)
	}

	doc, err = doc.Delete("resources")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if doc.Get("resources").Exists() {
		t.Error("resources still present after Delete")
	}
}

func TestDocumentTopLevelFieldsOrder(t *testing.T) {
	doc := Document(`{"zeta":1,"alpha":2,"mid":3}`)

	fields := doc.TopLevelFields()
	if len(fields) != 3 {
		t.Fatalf("len(TopLevelFields()) = %d, want 3", len(fields))
	}

	wantOrder := []string{"zeta", "alpha", "mid"}
	for i, field := range fields {
		if field.Key != wantOrder[i] {
			t.Errorf("field %d = %q, want %q", i, field.Key, wantOrder[i])
		}
	}
}

func TestDocumentPretty(t *testing.T) {
	doc := Document(`{"a":1}`)

	want := "{\n  \"a\": 1\n}"
	if got := string(doc.Pretty()); got != want {
		t.Errorf("Pretty() = %q, want %q", got, want)
	}

	malformed := Document(`{"a":`)
	if got := string(malformed.Pretty()); got != `{"a":` {
		t.Errorf("Pretty() on malformed input = %q, want passthrough", got)
	}
}

func TestEscapeKey(t *testing.T) {
	doc := Document(`{"context":{"city.region":"north"}}`)

	if got := doc.Get("context." + EscapeKey("city.region")).String(); got != "north" {
		t.Errorf("escaped lookup = %q, want %q", got, "north")
	}

	doc, err := doc.Set("context."+EscapeKey("wind*speed"), "strong")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := doc.ContextValue("wind*speed"); got != "strong" {
		t.Errorf("ContextValue(wind*speed) = %q, want %q", got, "strong")
	}
}
