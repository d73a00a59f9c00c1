package docservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/calder/inkwell/internal/apperr"
	"github.com/calder/inkwell/internal/markdown"
	"github.com/calder/inkwell/internal/testutil"
	"github.com/calder/inkwell/internal/versions"
)

func testService(t *testing.T) (*Service, *[]string) {
	t.Helper()
	docsDir, store := testutil.TestDocs(t)
	db := testutil.TestDB(t)

	vers := versions.New(t.TempDir())
	var events []string
	svc := NewService(store, db, vers, docsDir, func(kind, path string) {
		events = append(events, kind+":"+path)
	})
	return svc, &events
}

func docWith(text string) *markdown.Node {
	doc := markdown.NewDoc()
	doc.Children = append(doc.Children, &markdown.Node{
		Type: markdown.TypeParagraph,
		Children: []*markdown.Node{
			{Type: markdown.TypeText, Text: text},
		},
	})
	return doc
}

func TestCreateAndLoad(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	created, err := svc.CreateDocument(ctx, "a.md", []byte("# Alpha\n\nHello world.\n"))
	if err != nil {
		t.Fatal(err)
	}
	if created.DocID == "" {
		t.Error("create should assign a docId")
	}
	if created.Title != "Alpha" {
		t.Errorf("title = %q", created.Title)
	}

	got, err := svc.LoadDocument(ctx, "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.DocID != created.DocID {
		t.Errorf("docId changed on load: %q vs %q", got.DocID, created.DocID)
	}
	if got.WordCount != 3 {
		t.Errorf("word count = %d, want 3", got.WordCount)
	}
}

func TestCreateRejectsExisting(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.CreateDocument(ctx, "a.md", []byte("# A\n"))
	_, err := svc.CreateDocument(ctx, "a.md", []byte("# B\n"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestLoadMissing(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.LoadDocument(context.Background(), "nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveDocumentConflict(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	created, err := svc.SaveDocument(ctx, "a.md", docWith("one"), "A", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	// Stale checksum is rejected.
	if _, err := svc.SaveDocument(ctx, "a.md", docWith("two"), "A", created.Metadata, "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// Matching checksum succeeds and updates content.
	updated, err := svc.SaveDocument(ctx, "a.md", docWith("two"), "A", created.Metadata, created.Checksum)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Checksum == created.Checksum {
		t.Error("checksum should change with content")
	}
	if updated.DocID != created.DocID {
		t.Errorf("docId must be stable across saves: %q vs %q", updated.DocID, created.DocID)
	}
}

func TestSaveDocumentIgnoresSpoofedDocID(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	created, err := svc.SaveDocument(ctx, "a.md", docWith("one"), "A", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	spoofed := map[string]any{"docId": "deadbeef"}
	updated, err := svc.SaveDocument(ctx, "a.md", docWith("two"), "A", spoofed, created.Checksum)
	if err != nil {
		t.Fatal(err)
	}
	if updated.DocID != created.DocID {
		t.Errorf("docId = %q, want the on-disk id %q", updated.DocID, created.DocID)
	}

	vs, err := svc.ListVersions(ctx, "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) == 0 {
		t.Error("version history detached after save")
	}
}

func TestSaveDocumentIndexes(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	if _, err := svc.SaveDocument(ctx, "a.md", docWith("searchable needle text"), "Alpha", nil, ""); err != nil {
		t.Fatal(err)
	}
	hits, err := svc.Search(ctx, "needle", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Path != "a.md" {
		t.Errorf("hits = %+v", hits)
	}

	items, total, err := svc.ListDocuments(ctx, 10, 0, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].Title != "Alpha" {
		t.Errorf("list = %+v (total %d)", items, total)
	}
}

func TestDeleteDocument(t *testing.T) {
	svc, events := testService(t)
	ctx := context.Background()
	_, _ = svc.CreateDocument(ctx, "a.md", []byte("# A\n"))

	if err := svc.DeleteDocument(ctx, "a.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.LoadDocument(ctx, "a.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, total, _ := svc.ListDocuments(ctx, 10, 0, "", ""); total != 0 {
		t.Errorf("index still lists %d documents", total)
	}
	found := false
	for _, e := range *events {
		if e == "document.deleted:a.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("events = %v, want document.deleted:a.md", *events)
	}
}

func TestVersionsLifecycle(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	first, err := svc.CreateDocument(ctx, "a.md", []byte("# Alpha\n\nOriginal body.\n"))
	if err != nil {
		t.Fatal(err)
	}

	vs, err := svc.ListVersions(ctx, "a.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 1 {
		t.Fatalf("versions = %d, want 1", len(vs))
	}

	data, err := svc.VersionContent(ctx, "a.md", vs[0].Timestamp)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "" {
		t.Fatal("empty snapshot content")
	}

	// Mutate the live file directly, then restore the snapshot.
	docsPath := filepath.Join(svc.docsRoot, "a.md")
	if err := os.WriteFile(docsPath, []byte("# Alpha\n\nClobbered.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	restored, err := svc.RestoreVersion(ctx, "a.md", vs[0].Timestamp)
	if err != nil {
		t.Fatal(err)
	}
	if restored.DocID != first.DocID {
		t.Errorf("docId = %q, want %q", restored.DocID, first.DocID)
	}
	got, _ := svc.LoadDocument(ctx, "a.md")
	if got.Checksum != first.Checksum {
		t.Errorf("restore did not bring back the original content")
	}

	// The pre-restore state was force-snapshotted.
	vs, _ = svc.ListVersions(ctx, "a.md")
	if len(vs) < 2 {
		t.Errorf("versions = %d, want at least 2 after restore", len(vs))
	}
}

func TestVersionContentMissing(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.CreateDocument(ctx, "a.md", []byte("# A\n"))
	if _, err := svc.VersionContent(ctx, "a.md", 12345); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveMarkdownConflict(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	created, _ := svc.CreateDocument(ctx, "a.md", []byte("# A\n"))

	if _, err := svc.SaveMarkdown(ctx, "a.md", []byte("# B\n"), "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	updated, err := svc.SaveMarkdown(ctx, "a.md", []byte("# B\n"), created.Checksum)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "B" {
		t.Errorf("title = %q, want B", updated.Title)
	}
}
