// Package archive keeps zstd-compressed snapshots of committed world state
// documents, one file per commit, named so lexical order is commit order.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
)

const snapshotSuffix = ".json.zst"

// Archive stores committed-document snapshots in one directory.
type Archive struct {
	dir string
}

// Open prepares the snapshot directory.
func Open(dir string) (*Archive, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("archive dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Entry describes one stored snapshot.
type Entry struct {
	Name        string
	CycleID     string
	CommittedAt time.Time
	Size        int64
}

// Write stores one committed document and returns the snapshot file name.
func (a *Archive) Write(cycleID string, committedAt time.Time, doc domain.Document) (string, error) {
	cycleID = strings.TrimSpace(cycleID)
	if cycleID == "" {
		return "", fmt.Errorf("cycle id is required")
	}
	name := fmt.Sprintf("%013d_%s%s", committedAt.UTC().UnixMilli(), cycleID, snapshotSuffix)

	f, err := os.OpenFile(filepath.Join(a.dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return "", fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := enc.Write(doc); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	return name, nil
}

// List returns stored snapshots, newest commit first. Files that do not
// follow the snapshot naming scheme are ignored.
func (a *Archive) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		entry, ok := parseSnapshotName(dirEntry.Name())
		if !ok {
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat snapshot %s: %w", dirEntry.Name(), err)
		}
		entry.Size = info.Size()
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name > entries[j].Name
	})
	return entries, nil
}

// Read returns the document stored in one snapshot.
func (a *Archive) Read(name string) (domain.Document, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, snapshotSuffix) {
		return nil, fmt.Errorf("invalid snapshot name %q", name)
	}

	f, err := os.Open(filepath.Join(a.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	doc, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return domain.Document(doc), nil
}

func parseSnapshotName(name string) (Entry, bool) {
	if !strings.HasSuffix(name, snapshotSuffix) {
		return Entry{}, false
	}
	base := strings.TrimSuffix(name, snapshotSuffix)
	millisPart, cycleID, ok := strings.Cut(base, "_")
	if !ok || cycleID == "" {
		return Entry{}, false
	}
	millis, err := strconv.ParseInt(millisPart, 10, 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Name:        name,
		CycleID:     cycleID,
		CommittedAt: time.UnixMilli(millis).UTC(),
	}, true
}
