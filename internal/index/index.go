package index

import "github.com/calder/inkwell/internal/workspace"

// DocumentIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDoc(row DocumentRow, body string, tags []string) error
	DeleteDoc(path string) error
	GetDoc(path string) (*DocumentRow, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListDocs(limit, offset int, tag, sort string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Tags(path string) ([]string, error)
	AssignTag(path, tag string) error
	Close() error
}

// Verify *DB satisfies DocumentIndex at compile time, and that it can stand
// in as the workspace migration tag sink.
var (
	_ DocumentIndex      = (*DB)(nil)
	_ workspace.TagIndex = (*DB)(nil)
)
