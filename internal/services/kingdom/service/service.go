// Package service runs world state lifecycle cycles.
//
// A cycle moves through reading, transforming, validating, compacting and
// persisting. Nothing is written before the persist stage, so any earlier
// failure leaves the stored document byte-identical. At most one cycle is in
// flight per process; concurrent callers either queue or are rejected,
// depending on the configured busy policy.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
	"github.com/louisbranch/tinykingdom/internal/platform/id"
	"github.com/louisbranch/tinykingdom/internal/platform/timeouts"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/engine"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage"
)

var tracer = otel.Tracer("tinykingdom/kingdom")

// BusyPolicy decides what happens to a cycle that arrives while another one
// holds the writer gate.
type BusyPolicy string

const (
	// BusyQueue waits for the gate in FIFO order.
	BusyQueue BusyPolicy = "queue"
	// BusyReject fails fast with a busy error.
	BusyReject BusyPolicy = "reject"
)

// Config carries the tunable lifecycle parameters.
type Config struct {
	// Limits bounds the committed document. Zero value means the defaults.
	Limits domain.Limits
	// BusyPolicy defaults to BusyQueue.
	BusyPolicy BusyPolicy
	// EngineTimeout caps one engine call. Zero means the shared default.
	EngineTimeout time.Duration
	// StoreTimeout caps one store read or write. Zero means the shared default.
	StoreTimeout time.Duration
}

// Archiver appends committed document snapshots.
type Archiver interface {
	Write(cycleID string, committedAt time.Time, doc domain.Document) (string, error)
}

// Deps carries the orchestrator's collaborators. Store and Engine are
// required; Cycles and Archive are optional and skipped when nil.
type Deps struct {
	Store   storage.Store
	Engine  engine.Engine
	Cycles  storage.CycleLog
	Archive Archiver
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() (string, error)
}

// Service coordinates lifecycle cycles over a single world state document.
type Service struct {
	store   storage.Store
	engine  engine.Engine
	cycles  storage.CycleLog
	archive Archiver
	logger  *zap.Logger
	now     func() time.Time
	newID   func() (string, error)

	cfg Config

	// gate holds the single writer ticket.
	gate *semaphore.Weighted
}

// New validates dependencies and builds the orchestrator.
func New(deps Deps, cfg Config) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = id.NewID
	}

	if cfg.Limits == (domain.Limits{}) {
		cfg.Limits = domain.DefaultLimits()
	}
	switch cfg.BusyPolicy {
	case "":
		cfg.BusyPolicy = BusyQueue
	case BusyQueue, BusyReject:
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeConfigInvalid, "busy policy is invalid",
			map[string]string{"busy_policy": string(cfg.BusyPolicy)})
	}
	if cfg.EngineTimeout <= 0 {
		cfg.EngineTimeout = timeouts.EngineCall
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = timeouts.StoreCall
	}

	return &Service{
		store:   deps.Store,
		engine:  deps.Engine,
		cycles:  deps.Cycles,
		archive: deps.Archive,
		logger:  deps.Logger,
		now:     deps.Now,
		newID:   deps.NewID,
		cfg:     cfg,
		gate:    semaphore.NewWeighted(1),
	}, nil
}

// CycleResult describes one committed cycle.
type CycleResult struct {
	CycleID     string
	Summary     string
	LastUpdated time.Time
	Warnings    []string
	Metadata    json.RawMessage
	Document    domain.Document
}

// Snapshot is a read-only view of the stored document.
type Snapshot struct {
	Document    domain.Document
	LastUpdated time.Time
	// Found is false before the first committed creation; Document is then
	// the empty object.
	Found bool
}

// PatchFunc mutates a copy of the current document. Returning an error aborts
// the cycle with nothing written.
type PatchFunc func(doc domain.Document) (domain.Document, error)

// RunCycle executes one full engine cycle for the intent.
func (s *Service) RunCycle(ctx context.Context, intent domain.Intent) (CycleResult, error) {
	intent, err := domain.NormalizeIntent(intent)
	if err != nil {
		return CycleResult{}, err
	}
	if intent.Mode == domain.ModePatch {
		return CycleResult{}, apperrors.New(apperrors.CodeIntentInvalidMode, "patch intents must go through RunPatch")
	}
	return s.run(ctx, intent, nil)
}

// RunPatch executes one local mutation cycle. The patch skips the engine but
// passes through the same gate, validation, compaction and persistence as an
// engine cycle.
func (s *Service) RunPatch(ctx context.Context, name string, patch PatchFunc) (CycleResult, error) {
	intent, err := domain.NormalizeIntent(domain.Intent{Mode: domain.ModePatch, Name: name})
	if err != nil {
		return CycleResult{}, err
	}
	if patch == nil {
		return CycleResult{}, errors.New("patch function is required")
	}
	return s.run(ctx, intent, patch)
}

// WorldState returns the stored document without running a cycle. A missing
// record is not an error; the snapshot is then empty with Found false.
func (s *Service) WorldState(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	rec, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return Snapshot{Document: domain.EmptyDocument()}, nil
	}
	if err != nil {
		return Snapshot{}, wrapStage(apperrors.CodeStoreUnavailable, "load world state", err)
	}
	return Snapshot{Document: rec.WorldState, LastUpdated: rec.LastUpdated, Found: true}, nil
}

func (s *Service) run(ctx context.Context, intent domain.Intent, patch PatchFunc) (CycleResult, error) {
	if err := s.acquire(ctx); err != nil {
		return CycleResult{}, err
	}
	defer s.gate.Release(1)

	cycleID, err := s.newID()
	if err != nil {
		return CycleResult{}, fmt.Errorf("generate cycle id: %w", err)
	}

	ctx, span := tracer.Start(ctx, "kingdom.cycle")
	defer span.End()
	span.SetAttributes(
		attribute.String("cycle.id", cycleID),
		attribute.String("cycle.mode", string(intent.Mode)),
	)

	started := s.now().UTC()
	result, err := s.execute(ctx, cycleID, intent, patch)
	finished := s.now().UTC()

	outcome := storage.CycleCommitted
	errorCode := ""
	if err != nil {
		outcome = storage.CycleFailed
		errorCode = string(apperrors.CodeOf(err))
	}
	span.SetAttributes(attribute.String("cycle.outcome", outcome))
	if errorCode != "" {
		span.SetAttributes(attribute.String("cycle.error_code", errorCode))
	}

	record := storage.CycleRecord{
		ID:            cycleID,
		Mode:          string(intent.Mode),
		Name:          intent.Name,
		Outcome:       outcome,
		ErrorCode:     errorCode,
		Warnings:      result.Warnings,
		DocumentBytes: result.Document.Size(),
		Duration:      finished.Sub(started),
		StartedAt:     started,
		FinishedAt:    finished,
	}
	if sc := span.SpanContext(); sc.IsValid() {
		record.TraceID = sc.TraceID().String()
		record.SpanID = sc.SpanID().String()
	}
	s.audit(record)

	fields := []zap.Field{
		zap.String("cycle_id", cycleID),
		zap.String("mode", string(intent.Mode)),
		zap.String("name", intent.Name),
		zap.Duration("duration", record.Duration),
	}
	if err != nil {
		s.logger.Warn("cycle failed", append(fields,
			zap.String("error_code", errorCode), zap.Error(err))...)
		return CycleResult{}, err
	}
	s.logger.Info("cycle committed", append(fields,
		zap.Int("document_bytes", record.DocumentBytes),
		zap.Int("warnings", len(result.Warnings)))...)
	return result, nil
}

// execute walks the cycle stages. On any error the store is untouched.
func (s *Service) execute(ctx context.Context, cycleID string, intent domain.Intent, patch PatchFunc) (CycleResult, error) {
	rec, err := s.load(ctx)
	var prior domain.Prior
	switch {
	case err == nil:
		prior = domain.Prior{
			KingdomName:    rec.WorldState.KingdomName(),
			CompactedCount: rec.WorldState.CompactedCount(),
		}
	case errors.Is(err, storage.ErrNotFound) && intent.Mode == domain.ModeCreate:
		// First creation starts from the empty object.
		rec = storage.Record{ID: storage.SingleUserID, WorldState: domain.EmptyDocument()}
	case errors.Is(err, storage.ErrNotFound):
		return CycleResult{}, apperrors.Wrap(apperrors.CodeNotFound, "no kingdom exists yet", err)
	default:
		return CycleResult{}, err
	}

	var candidate domain.Document
	var summary string
	var metadata json.RawMessage
	if patch != nil {
		candidate, err = patch(rec.WorldState.Clone())
		if err != nil {
			return CycleResult{}, err
		}
	} else {
		transformed, err := s.transform(ctx, intent, rec.WorldState)
		if err != nil {
			return CycleResult{}, err
		}
		candidate = transformed.UpdatedState
		summary = transformed.Summary
		metadata = transformed.Metadata
	}

	validated, warnings, err := domain.Validate(candidate, prior)
	if err != nil {
		return CycleResult{}, err
	}

	compacted, report, err := domain.Compact(validated, s.cfg.Limits)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeSizeBudgetExceeded {
			s.logger.Error("document exceeds size budget after compaction",
				zap.String("cycle_id", cycleID),
				zap.Int("document_bytes", validated.Size()),
				zap.Int("max_bytes", s.cfg.Limits.MaxBytes),
				zap.Error(err))
		}
		return CycleResult{}, err
	}
	warnings = append(warnings, reportWarnings(report)...)

	committedAt := s.now().UTC()
	if !committedAt.After(rec.LastUpdated) {
		// The commit timestamp is strictly increasing even when the clock
		// has not advanced past the previous commit.
		committedAt = rec.LastUpdated.Add(time.Millisecond)
	}
	saved := storage.Record{ID: storage.SingleUserID, WorldState: compacted, LastUpdated: committedAt}
	if err := s.save(ctx, saved); err != nil {
		return CycleResult{}, err
	}

	s.snapshot(cycleID, saved)

	return CycleResult{
		CycleID:     cycleID,
		Summary:     summary,
		LastUpdated: committedAt,
		Warnings:    warnings,
		Metadata:    metadata,
		Document:    compacted,
	}, nil
}

func (s *Service) acquire(ctx context.Context) error {
	if s.cfg.BusyPolicy == BusyReject {
		if !s.gate.TryAcquire(1) {
			return apperrors.New(apperrors.CodeBusy, "another cycle is in flight")
		}
		return nil
	}
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return apperrors.Wrap(apperrors.CodeTimeout, "waiting for the writer gate", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context) (storage.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	rec, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Record{}, err
		}
		return storage.Record{}, wrapStage(apperrors.CodeStoreUnavailable, "load world state", err)
	}
	return rec, nil
}

func (s *Service) transform(ctx context.Context, intent domain.Intent, current domain.Document) (engine.Transformation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EngineTimeout)
	defer cancel()

	transformed, err := s.engine.Transform(ctx, intent, current)
	if err != nil {
		if isContextError(err) {
			return engine.Transformation{}, apperrors.Wrap(apperrors.CodeTimeout, "engine call timed out", err)
		}
		return engine.Transformation{}, err
	}
	return transformed, nil
}

func (s *Service) save(ctx context.Context, record storage.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.store.Save(ctx, record); err != nil {
		return wrapStage(apperrors.CodeStoreUnavailable, "persist world state", err)
	}
	return nil
}

// audit appends the cycle record on a fresh context so that an expired cycle
// context cannot lose the row. Failures are logged, never returned.
func (s *Service) audit(record storage.CycleRecord) {
	if s.cycles == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
	defer cancel()

	if err := s.cycles.AppendCycle(ctx, record); err != nil {
		s.logger.Warn("cycle audit append failed",
			zap.String("cycle_id", record.ID), zap.Error(err))
	}
}

// snapshot archives the committed document. Failures are logged, never
// returned; the commit already happened.
func (s *Service) snapshot(cycleID string, record storage.Record) {
	if s.archive == nil {
		return
	}
	if _, err := s.archive.Write(cycleID, record.LastUpdated, record.WorldState); err != nil {
		s.logger.Warn("snapshot archive write failed",
			zap.String("cycle_id", cycleID), zap.Error(err))
	}
}

// wrapStage maps context expiry to the timeout code; everything else keeps
// the stage's own code.
func wrapStage(code apperrors.Code, message string, err error) error {
	if isContextError(err) {
		return apperrors.Wrap(apperrors.CodeTimeout, message+" timed out", err)
	}
	return apperrors.Wrap(code, message+" failed", err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func reportWarnings(report domain.CompactionReport) []string {
	var warnings []string
	if report.TrimmedEvents > 0 {
		warnings = append(warnings, fmt.Sprintf("compaction trimmed %d events_log entries", report.TrimmedEvents))
	}
	if len(report.ClampedFields) > 0 {
		warnings = append(warnings, "compaction clamped context fields: "+strings.Join(report.ClampedFields, ", "))
	}
	if len(report.StrippedFields) > 0 {
		warnings = append(warnings, "compaction stripped fields: "+strings.Join(report.StrippedFields, ", "))
	}
	return warnings
}
