// Package statedump prints the committed world state, recent cycle audit
// rows, and archived snapshots for local inspection.
package statedump

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/louisbranch/tinykingdom/internal/platform/config"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/archive"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage/postgrest"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage/sqlite"
)

// Config holds statedump command configuration.
type Config struct {
	DBPath             string `env:"TINY_KINGDOM_DB_PATH" envDefault:"tinykingdom.db"`
	SupabaseURL        string `env:"TINY_KINGDOM_SUPABASE_URL"`
	SupabaseServiceKey string `env:"TINY_KINGDOM_SUPABASE_SERVICE_KEY"`
	ArchiveDir         string `env:"TINY_KINGDOM_ARCHIVE_DIR"`
	Cycles             int
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Cycles: 10}
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.ArchiveDir, "archive-dir", cfg.ArchiveDir, "snapshot archive directory")
	fs.IntVar(&cfg.Cycles, "cycles", cfg.Cycles, "number of recent cycles to list")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run dumps the committed document plus, where the backend carries them,
// recent cycles and archived snapshots. Backend selection matches the server:
// Supabase PostgREST when configured, the local sqlite file otherwise.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}

	if cfg.SupabaseURL != "" {
		store, err := postgrest.New(postgrest.Config{
			BaseURL: cfg.SupabaseURL,
			APIKey:  cfg.SupabaseServiceKey,
		})
		if err != nil {
			return fmt.Errorf("configure postgrest store: %w", err)
		}
		if err := printRecord(ctx, store, out); err != nil {
			return err
		}
		// The hosted backend has no local audit log.
		return printArchive(cfg.ArchiveDir, out)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer store.Close()

	if err := printRecord(ctx, store, out); err != nil {
		return err
	}
	if err := printCycles(ctx, store, cfg.Cycles, out); err != nil {
		return err
	}
	return printArchive(cfg.ArchiveDir, out)
}

// printRecord writes the committed document, or a note before first creation.
func printRecord(ctx context.Context, store storage.Store, out io.Writer) error {
	record, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		_, err = fmt.Fprintln(out, "No kingdom has been created yet.")
		return err
	}
	if err != nil {
		return fmt.Errorf("load world state: %w", err)
	}

	fmt.Fprintf(out, "Last updated: %s\n\n", record.LastUpdated.UTC().Format(time.RFC3339))
	_, err = out.Write(append(record.WorldState.Pretty(), '\n'))
	return err
}

// printCycles lists the most recent audit rows, newest first.
func printCycles(ctx context.Context, cycleLog storage.CycleLog, limit int, out io.Writer) error {
	if limit <= 0 {
		return nil
	}
	records, err := cycleLog.ListRecentCycles(ctx, limit)
	if err != nil {
		return fmt.Errorf("list recent cycles: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\nRecent cycles (%d):\n", len(records))
	for _, record := range records {
		line := fmt.Sprintf("  %s  %-7s %-24s %-9s %7dB  %s",
			record.FinishedAt.UTC().Format(time.RFC3339),
			record.Mode,
			record.Name,
			record.Outcome,
			record.DocumentBytes,
			record.Duration.Round(time.Millisecond),
		)
		if record.ErrorCode != "" {
			line += "  " + record.ErrorCode
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// printArchive lists archived snapshots when an archive directory is set.
func printArchive(dir string, out io.Writer) error {
	if dir == "" {
		return nil
	}
	snapshots, err := archive.Open(dir)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	entries, err := snapshots.List()
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "\nArchive is empty.")
		return nil
	}

	fmt.Fprintf(out, "\nArchived snapshots (%d):\n", len(entries))
	for _, entry := range entries {
		fmt.Fprintf(out, "  %s  %8dB  %s\n",
			entry.CommittedAt.UTC().Format(time.RFC3339), entry.Size, entry.Name)
	}
	return nil
}
