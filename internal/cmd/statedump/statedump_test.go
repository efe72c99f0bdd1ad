package statedump

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/archive"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage/sqlite"
)

var committedAt = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

const worldJSON = `{"kingdom_name":"Emberfall","resources":{"gold":100},"context":{}}`

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("statedump", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "tinykingdom.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.Cycles != 10 {
		t.Fatalf("expected default cycle limit 10, got %d", cfg.Cycles)
	}
}

func TestRunPrintsDocumentAndHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "kingdom.db")
	archiveDir := filepath.Join(dir, "snapshots")

	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Save(ctx, storage.Record{
		ID:          storage.SingleUserID,
		WorldState:  domain.Document(worldJSON),
		LastUpdated: committedAt,
	}); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if err := store.AppendCycle(ctx, storage.CycleRecord{
		ID:            "cycle-1",
		Mode:          "act",
		Name:          "host_festival",
		Outcome:       storage.CycleCommitted,
		DocumentBytes: len(worldJSON),
		Duration:      1200 * time.Millisecond,
		StartedAt:     committedAt.Add(-2 * time.Second),
		FinishedAt:    committedAt,
	}); err != nil {
		t.Fatalf("append cycle: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	snapshots, err := archive.Open(archiveDir)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if _, err := snapshots.Write("cycle-1", committedAt, domain.Document(worldJSON)); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	var out bytes.Buffer
	if err := Run(ctx, Config{DBPath: dbPath, ArchiveDir: archiveDir, Cycles: 10}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Last updated: 2026-03-01T12:00:00Z",
		`"kingdom_name": "Emberfall"`,
		"Recent cycles (1):",
		"host_festival",
		"committed",
		"Archived snapshots (1):",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestRunBeforeCreation(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "kingdom.db")

	var out bytes.Buffer
	if err := Run(ctx, Config{DBPath: dbPath, Cycles: 10}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "No kingdom has been created yet.") {
		t.Errorf("expected empty-state note, got:\n%s", out.String())
	}
}
