package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/calder/inkwell/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "inkwell-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM tags`).Scan(&count); err != nil {
		t.Fatalf("tags table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Path:      "hello.md",
		DocID:     "ab12cd34",
		Title:     "Hello World",
		Checksum:  "abc123",
		WordCount: 6,
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDoc(row, "This is a hello world doc.", []string{"go", "test"}); err != nil {
		t.Fatalf("UpsertDoc: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
	got, _ := db.GetDoc("hello.md")
	if got == nil || got.DocID != "ab12cd34" || got.WordCount != 6 {
		t.Errorf("row = %+v", got)
	}
}

func TestUpsertReplacesTags(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocumentRow{Path: "t.md", Checksum: "1", UpdatedAt: time.Now()}, "body", []string{"old"})
	_ = db.UpsertDoc(DocumentRow{Path: "t.md", Checksum: "2", UpdatedAt: time.Now()}, "body", []string{"new"})

	tags, err := db.Tags("t.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0] != "new" {
		t.Errorf("tags = %v, want [new]", tags)
	}
}

func TestAssignTagKeepsExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocumentRow{Path: "t.md", Checksum: "1", UpdatedAt: time.Now()}, "body", []string{"a"})
	if err := db.AssignTag("t.md", "b"); err != nil {
		t.Fatal(err)
	}
	_ = db.AssignTag("t.md", "b") // idempotent
	tags, _ := db.Tags("t.md")
	if len(tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", tags)
	}
}

func TestDeleteDoc(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocumentRow{Path: "del.md", Checksum: "x", UpdatedAt: time.Now()}, "body", []string{"tag"})

	if err := db.DeleteDoc("del.md"); err != nil {
		t.Fatalf("DeleteDoc: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted doc still has checksum %q", cs)
	}
	tags, _ := db.Tags("del.md")
	if len(tags) != 0 {
		t.Errorf("expected 0 tags after delete, got %d", len(tags))
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListDocs(t *testing.T) {
	db := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = db.UpsertDoc(DocumentRow{Path: "a.md", Title: "Alpha", Checksum: "1", UpdatedAt: base}, "", []string{"work"})
	_ = db.UpsertDoc(DocumentRow{Path: "b.md", Title: "Beta", Checksum: "2", UpdatedAt: base.Add(time.Hour)}, "", nil)

	rows, total, err := db.ListDocs(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total = %d, rows = %d", total, len(rows))
	}
	if rows[0].Path != "b.md" {
		t.Errorf("default sort should be newest first, got %q", rows[0].Path)
	}

	rows, total, err = db.ListDocs(10, 0, "work", "title")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "a.md" {
		t.Errorf("tag filter: total = %d, rows = %+v", total, rows)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocumentRow{Path: "s.md", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here", nil)
	_ = db.UpsertDoc(DocumentRow{Path: "tagged.md", Title: "Other", Checksum: "2", UpdatedAt: time.Now()}, "nothing", []string{"uniquetag"})

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}

	results, _ = db.Search("uniquetag", 10)
	if len(results) != 1 || results[0].Path != "tagged.md" {
		t.Errorf("tag search results = %+v", results)
	}
}

func TestSyncIndexesAndRemoves(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	content := "---\ndocId: ab12cd34\ntags:\n  - work\n---\n\n# Alpha\n\nOne two three.\n"
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	row, _ := db.GetDoc("a.md")
	if row == nil {
		t.Fatal("document not indexed")
	}
	if row.Title != "Alpha" || row.DocID != "ab12cd34" {
		t.Errorf("row = %+v", row)
	}
	if row.WordCount != 4 {
		t.Errorf("word count = %d, want 4", row.WordCount)
	}
	tags, _ := db.Tags("a.md")
	if len(tags) != 1 || tags[0] != "work" {
		t.Errorf("tags = %v", tags)
	}

	_ = os.Remove(filepath.Join(dir, "a.md"))
	if err := Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}
	if cs, _ := db.GetChecksum("a.md"); cs != "" {
		t.Error("stale entry should be removed on sync")
	}
}
