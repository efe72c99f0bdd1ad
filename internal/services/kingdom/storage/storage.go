// Package storage defines persistence contracts for kingdom world state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
)

// ErrNotFound indicates the requested record is missing.
var ErrNotFound = errors.New("record not found")

// SingleUserID is the fixed record ID. Each deployment holds exactly one
// world, always under this key.
const SingleUserID = "single_user"

// Record stores one committed world state document.
type Record struct {
	ID          string
	WorldState  domain.Document
	LastUpdated time.Time
}

// Store persists the singleton world state record.
type Store interface {
	// Load returns the committed record, or ErrNotFound before first creation.
	Load(ctx context.Context) (Record, error)
	// Save replaces the committed record atomically.
	Save(ctx context.Context, record Record) error
}

// Cycle outcomes.
const (
	CycleCommitted = "committed"
	CycleFailed    = "failed"
)

// CycleRecord stores one audit row for a finished lifecycle cycle.
type CycleRecord struct {
	ID            string
	Mode          string
	Name          string
	Outcome       string
	ErrorCode     string
	Warnings      []string
	DocumentBytes int
	Duration      time.Duration
	TraceID       string
	SpanID        string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// CycleLog records finished cycles for later inspection. Appends are
// best-effort; a failed append never fails the cycle it describes.
type CycleLog interface {
	AppendCycle(ctx context.Context, record CycleRecord) error
	ListRecentCycles(ctx context.Context, limit int) ([]CycleRecord, error)
}
