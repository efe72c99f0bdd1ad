// Package sqlite provides a SQLite-backed kingdom storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/tinykingdom/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists kingdom state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite kingdom store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the singleton world state record.
func (s *Store) Load(ctx context.Context) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, world_state, last_updated FROM kingdom WHERE id = ?`,
		storage.SingleUserID,
	)

	var record storage.Record
	var worldState string
	var lastUpdated int64
	if err := row.Scan(&record.ID, &worldState, &lastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Record{}, storage.ErrNotFound
		}
		return storage.Record{}, fmt.Errorf("load kingdom: %w", err)
	}

	record.WorldState = domain.Document(worldState)
	record.LastUpdated = fromMillis(lastUpdated)
	return record, nil
}

// Save upserts the singleton world state record.
func (s *Store) Save(ctx context.Context, record storage.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(record.WorldState) == 0 {
		return fmt.Errorf("world state is required")
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		id = storage.SingleUserID
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO kingdom (id, world_state, last_updated)
		 VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   world_state = excluded.world_state,
		   last_updated = excluded.last_updated`,
		id,
		string(record.WorldState),
		toMillis(record.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("save kingdom: %w", err)
	}
	return nil
}

// AppendCycle inserts one cycle audit row.
func (s *Store) AppendCycle(ctx context.Context, record storage.CycleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		return fmt.Errorf("cycle id is required")
	}

	warnings := record.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("encode cycle warnings: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO cycle_log (
		   id, mode, name, outcome, error_code, warnings,
		   document_bytes, duration_ms, trace_id, span_id,
		   started_at, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		record.Mode,
		record.Name,
		record.Outcome,
		record.ErrorCode,
		string(warningsJSON),
		record.DocumentBytes,
		record.Duration.Milliseconds(),
		record.TraceID,
		record.SpanID,
		toMillis(record.StartedAt),
		toMillis(record.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("append cycle: %w", err)
	}
	return nil
}

// ListRecentCycles returns finished cycles, newest first.
func (s *Store) ListRecentCycles(ctx context.Context, limit int) ([]storage.CycleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, mode, name, outcome, error_code, warnings,
		        document_bytes, duration_ms, trace_id, span_id,
		        started_at, finished_at
		   FROM cycle_log
		  ORDER BY started_at DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	records := make([]storage.CycleRecord, 0, limit)
	for rows.Next() {
		var record storage.CycleRecord
		var warningsJSON string
		var durationMillis int64
		var startedAt int64
		var finishedAt int64
		if err := rows.Scan(
			&record.ID,
			&record.Mode,
			&record.Name,
			&record.Outcome,
			&record.ErrorCode,
			&warningsJSON,
			&record.DocumentBytes,
			&durationMillis,
			&record.TraceID,
			&record.SpanID,
			&startedAt,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("list cycles: %w", err)
		}
		if err := json.Unmarshal([]byte(warningsJSON), &record.Warnings); err != nil {
			return nil, fmt.Errorf("decode cycle warnings: %w", err)
		}
		record.Duration = time.Duration(durationMillis) * time.Millisecond
		record.StartedAt = fromMillis(startedAt)
		record.FinishedAt = fromMillis(finishedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	return records, nil
}

var _ storage.Store = (*Store)(nil)
var _ storage.CycleLog = (*Store)(nil)
