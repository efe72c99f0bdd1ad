// Package postgrest provides a Supabase PostgREST-backed kingdom storage
// implementation. Only the world state record lives here; cycle audit rows
// stay in the local SQLite store.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage"
)

// Config configures the PostgREST endpoint and credentials.
type Config struct {
	// BaseURL is the project root, for example https://xyz.supabase.co.
	BaseURL string
	// APIKey is sent as both the apikey header and the bearer token.
	APIKey     string
	HTTPClient *http.Client
}

// Store persists kingdom state through the Supabase REST API.
type Store struct {
	cfg Config
}

// New builds a PostgREST kingdom store.
func New(cfg Config) (*Store, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Store{cfg: cfg}, nil
}

type kingdomRow struct {
	ID          string          `json:"id"`
	WorldState  json.RawMessage `json:"world_state"`
	LastUpdated string          `json:"last_updated"`
}

// Load returns the singleton world state record.
func (s *Store) Load(ctx context.Context) (storage.Record, error) {
	query := url.Values{}
	query.Set("id", "eq."+storage.SingleUserID)
	query.Set("select", "id,world_state,last_updated")
	endpoint := s.cfg.BaseURL + "/rest/v1/kingdom?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return storage.Record{}, fmt.Errorf("build load request: %w", err)
	}
	s.setHeaders(req)

	res, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return storage.Record{}, fmt.Errorf("load request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return storage.Record{}, fmt.Errorf("read load error body: %w", err)
		}
		return storage.Record{}, fmt.Errorf("load request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []kingdomRow
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return storage.Record{}, fmt.Errorf("decode load response: %w", err)
	}
	if len(rows) == 0 {
		return storage.Record{}, storage.ErrNotFound
	}

	row := rows[0]
	lastUpdated, err := parseTimestamp(row.LastUpdated)
	if err != nil {
		return storage.Record{}, fmt.Errorf("parse last_updated: %w", err)
	}
	return storage.Record{
		ID:          row.ID,
		WorldState:  domain.Document(row.WorldState),
		LastUpdated: lastUpdated,
	}, nil
}

// Save upserts the singleton world state record.
func (s *Store) Save(ctx context.Context, record storage.Record) error {
	if len(record.WorldState) == 0 {
		return fmt.Errorf("world state is required")
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		id = storage.SingleUserID
	}

	body, err := json.Marshal([]kingdomRow{{
		ID:          id,
		WorldState:  json.RawMessage(record.WorldState),
		LastUpdated: record.LastUpdated.UTC().Format(time.RFC3339Nano),
	}})
	if err != nil {
		return fmt.Errorf("marshal save request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/rest/v1/kingdom", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build save request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	res, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("save request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return fmt.Errorf("read save error body: %w", err)
		}
		return fmt.Errorf("save request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Key material is sent only as headers and never echoed in errors.
func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
}

// parseTimestamp accepts RFC 3339 timestamps plus the zone-less form older
// writers stored, which is read as UTC.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02T15:04:05.999999999", value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

var _ storage.Store = (*Store)(nil)
