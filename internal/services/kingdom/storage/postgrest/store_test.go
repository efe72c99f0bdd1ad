package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage"
)

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{APIKey: "key"}); err == nil {
		t.Error("expected missing base url error")
	}
	if _, err := New(Config{BaseURL: "https://example.supabase.co"}); err == nil {
		t.Error("expected missing api key error")
	}
}

func TestLoadReturnsRecord(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/rest/v1/kingdom" {
			t.Errorf("path = %s, want /rest/v1/kingdom", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.single_user" {
			t.Errorf("id filter = %q, want eq.single_user", got)
		}
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("apikey header = %q, want test-key", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"single_user","world_state":{"kingdom_name":"Eldoria","day":3},"last_updated":"2026-03-01T09:30:00Z"}]`)
	}))
	defer server.Close()

	store, err := New(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != storage.SingleUserID {
		t.Errorf("id = %q, want %q", got.ID, storage.SingleUserID)
	}
	if name := got.WorldState.KingdomName(); name != "Eldoria" {
		t.Errorf("kingdom_name = %q, want Eldoria", name)
	}
	want := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	if !got.LastUpdated.Equal(want) {
		t.Errorf("last_updated = %v, want %v", got.LastUpdated, want)
	}
}

func TestLoadParsesZonelessTimestamp(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"single_user","world_state":{},"last_updated":"2026-03-01T09:30:00.123456"}]`)
	}))
	defer server.Close()

	store, err := New(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := time.Date(2026, time.March, 1, 9, 30, 0, 123456000, time.UTC)
	if !got.LastUpdated.Equal(want) {
		t.Errorf("last_updated = %v, want %v", got.LastUpdated, want)
	}
}

func TestLoadReturnsNotFoundOnEmptyResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	store, err := New(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, err = store.Load(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("load error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestLoadReportsServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store, err := New(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestSaveUpsertsRecord(t *testing.T) {
	t.Parallel()

	var gotPrefer string
	var gotRows []kingdomRow
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/rest/v1/kingdom" {
			t.Errorf("path = %s, want /rest/v1/kingdom", r.URL.Path)
		}
		gotPrefer = r.Header.Get("Prefer")
		if err := json.NewDecoder(r.Body).Decode(&gotRows); err != nil {
			t.Errorf("decode save body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store, err := New(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	record := storage.Record{
		WorldState:  domain.Document(`{"day":4}`),
		LastUpdated: now,
	}
	if err := store.Save(context.Background(), record); err != nil {
		t.Fatalf("save: %v", err)
	}

	if gotPrefer != "resolution=merge-duplicates,return=minimal" {
		t.Errorf("prefer header = %q", gotPrefer)
	}
	if len(gotRows) != 1 {
		t.Fatalf("rows = %d, want 1", len(gotRows))
	}
	if gotRows[0].ID != storage.SingleUserID {
		t.Errorf("row id = %q, want %q", gotRows[0].ID, storage.SingleUserID)
	}
	if string(gotRows[0].WorldState) != `{"day":4}` {
		t.Errorf("row world_state = %s", gotRows[0].WorldState)
	}
	if gotRows[0].LastUpdated != "2026-03-01T10:00:00Z" {
		t.Errorf("row last_updated = %q", gotRows[0].LastUpdated)
	}
}

func TestSaveReportsServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict", http.StatusConflict)
	}))
	defer server.Close()

	store, err := New(Config{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	err = store.Save(context.Background(), storage.Record{
		WorldState:  domain.Document(`{}`),
		LastUpdated: time.Now(),
	})
	if err == nil {
		t.Fatal("expected save error")
	}
}
