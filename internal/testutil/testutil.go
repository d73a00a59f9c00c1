// Package testutil provides shared test helpers for setting up docs
// directories and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/calder/inkwell/internal/index"
	"github.com/calder/inkwell/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "inkwell-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDocs creates a temporary docs directory with a storage.Provider.
func TestDocs(t *testing.T) (string, storage.Provider) {
	t.Helper()
	docsDir := t.TempDir()
	store, err := storage.NewFS(docsDir)
	if err != nil {
		t.Fatal(err)
	}
	return docsDir, store
}
