// Package docservice coordinates storage, index, and version history for
// document operations. It is the single mutation path for documents, so it
// also owns the lock that the storage-facing packages deliberately lack.
package docservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/calder/inkwell/internal/apperr"
	"github.com/calder/inkwell/internal/checksum"
	"github.com/calder/inkwell/internal/index"
	"github.com/calder/inkwell/internal/markdown"
	"github.com/calder/inkwell/internal/models"
	"github.com/calder/inkwell/internal/storage"
	"github.com/calder/inkwell/internal/versions"
)

// Notify is called after a successful mutation. kind is one of
// "document.saved", "document.deleted", "version.created".
type Notify func(kind, path string)

// Service coordinates storage, index, and version operations.
type Service struct {
	store    storage.Provider
	db       *index.DB
	vers     *versions.Store
	docsRoot string
	notify   Notify

	mu sync.Mutex
}

// NewService creates a new document service. docsRoot is the absolute path
// of the directory store is rooted at; notify may be nil.
func NewService(store storage.Provider, db *index.DB, vers *versions.Store, docsRoot string, notify Notify) *Service {
	return &Service{store: store, db: db, vers: vers, docsRoot: docsRoot, notify: notify}
}

// LoadDocument reads a document from storage and parses it into a tree.
func (s *Service) LoadDocument(_ context.Context, path string) (*models.Document, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data)
}

// SaveDocument serializes the given tree back to markdown and persists it
// with optimistic concurrency: when ifMatch is non-empty it must equal the
// checksum of the content currently on disk. A docId is assigned on first
// save and a version snapshot is taken when due.
func (s *Service) SaveDocument(_ context.Context, path string, doc *markdown.Node, title string, metadata map[string]any, ifMatch string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Read(path)
	switch {
	case err == nil:
		if ifMatch != "" && ifMatch != checksum.Sum(existing) {
			return nil, apperr.ErrConflict
		}
	case errors.Is(err, os.ErrNotExist):
		if ifMatch != "" {
			return nil, apperr.ErrNotFound
		}
	default:
		return nil, err
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	// docId is server-owned and immutable: the id already on disk wins over
	// whatever the caller sent, keeping version history attached.
	if existing != nil {
		if id, ok := markdown.Parse(existing).Metadata["docId"].(string); ok && id != "" {
			metadata["docId"] = id
		}
	}
	docID := s.vers.EnsureDocID(metadata)

	content, _ := markdown.Serialize(doc, title, metadata)
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.indexFile(path, content); err != nil {
		return nil, err
	}
	s.vers.SnapshotIfNeeded(docID, filepath.Join(s.docsRoot, path))
	s.emit("document.saved", path)
	return s.buildDetail(path, content)
}

// CreateDocument writes raw markdown to a new path, assigning a docId.
func (s *Service) CreateDocument(_ context.Context, path string, content []byte) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	return s.writeRaw(path, content)
}

// SaveMarkdown persists raw markdown content with optimistic concurrency.
// Used by surfaces that speak markdown rather than trees.
func (s *Service) SaveMarkdown(_ context.Context, path string, content []byte, ifMatch string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ifMatch != "" {
		existing, err := s.store.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, apperr.ErrNotFound
			}
			return nil, err
		}
		if ifMatch != checksum.Sum(existing) {
			return nil, apperr.ErrConflict
		}
	}
	return s.writeRaw(path, content)
}

// writeRaw round-trips content through the parser so the stored file always
// carries a docId, then writes, indexes, and snapshots.
func (s *Service) writeRaw(path string, content []byte) (*models.Document, error) {
	res := markdown.Parse(content)
	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}
	docID := s.vers.EnsureDocID(res.Metadata)
	content, _ = markdown.Serialize(res.Doc, res.Title, res.Metadata)

	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.indexFile(path, content); err != nil {
		return nil, err
	}
	s.vers.SnapshotIfNeeded(docID, filepath.Join(s.docsRoot, path))
	s.emit("document.saved", path)
	return s.buildDetail(path, content)
}

// DeleteDocument removes a document from storage and index. Version
// snapshots are kept; they are pruned by retention, not by deletion.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteDoc(path); err != nil {
		return err
	}
	s.emit("document.deleted", path)
	return nil
}

// ListDocuments returns paginated documents with optional tag filter.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, tag, sort string) ([]models.DocumentSummary, int, error) {
	rows, total, err := s.db.ListDocs(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.DocumentSummary, len(rows))
	for i, r := range rows {
		items[i] = models.DocumentSummary{
			Path:      r.Path,
			DocID:     r.DocID,
			Title:     r.Title,
			WordCount: r.WordCount,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// ListVersions returns the snapshot history for the document at path,
// newest first.
func (s *Service) ListVersions(_ context.Context, path string) ([]versions.VersionInfo, error) {
	docID, err := s.resolveDocID(path)
	if err != nil {
		return nil, err
	}
	if docID == "" {
		return []versions.VersionInfo{}, nil
	}
	return s.vers.List(docID), nil
}

// VersionContent returns the exact stored bytes of one snapshot.
func (s *Service) VersionContent(_ context.Context, path string, ts int64) ([]byte, error) {
	docID, err := s.resolveDocID(path)
	if err != nil {
		return nil, err
	}
	data, ok := s.vers.GetContent(docID, ts)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return data, nil
}

// RestoreVersion replaces the live document with a snapshot. The current
// content is force-snapshotted first so the restore itself is undoable.
func (s *Service) RestoreVersion(_ context.Context, path string, ts int64) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docID, err := s.resolveDocID(path)
	if err != nil {
		return nil, err
	}
	data, ok := s.vers.GetContent(docID, ts)
	if !ok {
		return nil, apperr.ErrNotFound
	}

	s.vers.ForceSnapshot(docID, filepath.Join(s.docsRoot, path))
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := s.indexFile(path, data); err != nil {
		return nil, err
	}
	s.emit("version.created", path)
	s.emit("document.saved", path)
	return s.buildDetail(path, data)
}

// IndexFile parses data and upserts it into the index.
// Exported so that sync and watcher wiring can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	return s.indexFile(path, data)
}

func (s *Service) indexFile(path string, data []byte) error {
	return index.IndexContent(s.db, path, data)
}

// resolveDocID reads the document header to find its docId.
func (s *Service) resolveDocID(path string) (string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	res := markdown.Parse(data)
	id, _ := res.Metadata["docId"].(string)
	return id, nil
}

// buildDetail constructs a Document from raw data without re-reading the file.
func (s *Service) buildDetail(path string, data []byte) (*models.Document, error) {
	res := markdown.Parse(data)
	wc := 0
	for _, b := range markdown.LeafBlocks(res.Doc) {
		wc += markdown.WordCount(b.PlainText())
	}
	docID, _ := res.Metadata["docId"].(string)
	return &models.Document{
		Path:      path,
		DocID:     docID,
		Title:     res.Title,
		Metadata:  res.Metadata,
		Doc:       res.Doc,
		Content:   data,
		Checksum:  checksum.Sum(data),
		WordCount: wc,
		UpdatedAt: time.Now(),
	}, nil
}

func (s *Service) emit(kind, path string) {
	if s.notify != nil {
		s.notify(kind, path)
	}
}
