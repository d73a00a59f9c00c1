// Package versions keeps a content-addressed, deduplicated, retention-bounded
// snapshot history per document. Snapshots live at
// <root>/<docId>/<epoch-millis>.md and are immutable once written.
//
// Everything here is best-effort: a failed snapshot must never block a save
// or restore, so file-system errors are logged and swallowed.
package versions

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/calder/inkwell/internal/checksum"
	"github.com/calder/inkwell/internal/markdown"
)

const (
	// minInterval throttles snapshot writes per document.
	minInterval = 30 * time.Second
	// keepRecent snapshots are always retained by pruning.
	keepRecent = 50
	// retainAge is the window inside which snapshots are always retained.
	retainAge = 7 * 24 * time.Hour
)

// VersionInfo describes one stored snapshot.
type VersionInfo struct {
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int64     `json:"size"`
	WordCount int       `json:"wordCount"`
}

// snapState is the per-docId dedup/throttle cache entry.
type snapState struct {
	lastTS   int64 // epoch millis of the newest snapshot
	lastHash string
}

// Store is the snapshot store. The cache is process-local mutable state with
// no internal locking; callers must serialize mutations per docId.
type Store struct {
	root string
	now  func() time.Time

	cache map[string]snapState
}

// New creates a snapshot store rooted at dir.
func New(dir string) *Store {
	return &Store{
		root:  dir,
		now:   time.Now,
		cache: make(map[string]snapState),
	}
}

// EnsureDocID returns the document's docId from metadata, assigning and
// recording a fresh one when absent. The identifier mixes current time with
// randomness; collisions are an accepted (unbounded but tiny) risk.
func (s *Store) EnsureDocID(metadata map[string]any) string {
	if id, ok := metadata["docId"].(string); ok && id != "" {
		return id
	}
	var b [2]byte
	_, _ = rand.Read(b[:])
	id := fmt.Sprintf("%04x%04x", uint16(s.now().Unix()), binary.BigEndian.Uint16(b[:]))
	metadata["docId"] = id
	return id
}

// SnapshotIfNeeded snapshots the file at path unless its content hash equals
// the last snapshot's or less than 30 seconds have elapsed since it. Meant
// to be called after every persisted write of the live document.
func (s *Store) SnapshotIfNeeded(docID, path string) {
	if docID == "" {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("versions: read for snapshot failed", slog.String("docId", docID), slog.String("error", err.Error()))
		return
	}

	state := s.seed(docID)
	hash := checksum.Sum(content)
	if hash == state.lastHash {
		return
	}
	nowMS := s.now().UnixMilli()
	if state.lastTS != 0 && nowMS-state.lastTS < minInterval.Milliseconds() {
		return
	}
	s.write(docID, content, nowMS, hash)
}

// ForceSnapshot snapshots unconditionally, skipping dedup and throttle.
// Used immediately before a destructive restore.
func (s *Store) ForceSnapshot(docID, path string) {
	if docID == "" {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("versions: read for snapshot failed", slog.String("docId", docID), slog.String("error", err.Error()))
		return
	}
	s.seed(docID)
	s.write(docID, content, s.now().UnixMilli(), checksum.Sum(content))
}

// seed initializes the in-memory cache for docID from the newest snapshot
// already on disk, so a restart does not produce a duplicate write.
func (s *Store) seed(docID string) snapState {
	if state, ok := s.cache[docID]; ok {
		return state
	}
	state := snapState{}
	if ts, ok := s.newestTimestamp(docID); ok {
		state.lastTS = ts
		if data, err := os.ReadFile(s.snapshotPath(docID, ts)); err == nil {
			state.lastHash = checksum.Sum(data)
		}
	}
	s.cache[docID] = state
	return state
}

func (s *Store) write(docID string, content []byte, ts int64, hash string) {
	dir := filepath.Join(s.root, docID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("versions: mkdir failed", slog.String("docId", docID), slog.String("error", err.Error()))
		return
	}
	if err := os.WriteFile(s.snapshotPath(docID, ts), content, 0o644); err != nil {
		slog.Warn("versions: write failed", slog.String("docId", docID), slog.String("error", err.Error()))
		return
	}
	s.cache[docID] = snapState{lastTS: ts, lastHash: hash}
	s.Prune(docID)
}

// List enumerates stored snapshots newest first. Files whose names do not
// parse as a millisecond timestamp are skipped.
func (s *Store) List(docID string) []VersionInfo {
	timestamps := s.timestamps(docID)
	out := make([]VersionInfo, 0, len(timestamps))
	for _, ts := range timestamps {
		p := s.snapshotPath(docID, ts)
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		wc := 0
		if data, err := os.ReadFile(p); err == nil {
			wc = markdown.WordCount(string(data))
		}
		out = append(out, VersionInfo{
			Timestamp: ts,
			CreatedAt: time.UnixMilli(ts),
			Size:      info.Size(),
			WordCount: wc,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// GetContent returns the exact snapshot content, or false when absent.
func (s *Store) GetContent(docID string, ts int64) ([]byte, bool) {
	data, err := os.ReadFile(s.snapshotPath(docID, ts))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Restore returns the snapshot parsed into a ready-to-apply tree, or false
// when the snapshot does not exist.
func (s *Store) Restore(docID string, ts int64) (*markdown.ParseResult, bool) {
	data, ok := s.GetContent(docID, ts)
	if !ok {
		return nil, false
	}
	return markdown.Parse(data), true
}

// Prune applies the retention policy: with 50 or fewer snapshots everything
// is kept; beyond that the 50 newest are kept and, of the rest, only those
// newer than 7 days. Deletion failures are ignored.
func (s *Store) Prune(docID string) {
	timestamps := s.timestamps(docID)
	if len(timestamps) <= keepRecent {
		return
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] > timestamps[j] })

	cutoff := s.now().Add(-retainAge).UnixMilli()
	for _, ts := range timestamps[keepRecent:] {
		if ts >= cutoff {
			continue
		}
		_ = os.Remove(s.snapshotPath(docID, ts))
	}
}

func (s *Store) snapshotPath(docID string, ts int64) string {
	return filepath.Join(s.root, docID, strconv.FormatInt(ts, 10)+".md")
}

// timestamps lists the parsable snapshot timestamps for docID, unsorted.
func (s *Store) timestamps(docID string) []int64 {
	entries, err := os.ReadDir(filepath.Join(s.root, docID))
	if err != nil {
		return nil
	}
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if name == e.Name() {
			continue
		}
		ts, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, ts)
	}
	return out
}

func (s *Store) newestTimestamp(docID string) (int64, bool) {
	timestamps := s.timestamps(docID)
	if len(timestamps) == 0 {
		return 0, false
	}
	newest := timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts > newest {
			newest = ts
		}
	}
	return newest, true
}
