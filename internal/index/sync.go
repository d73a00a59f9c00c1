package index

import (
	"log/slog"
	"time"

	"github.com/calder/inkwell/internal/checksum"
	"github.com/calder/inkwell/internal/markdown"
	"github.com/calder/inkwell/internal/storage"
)

// Sync walks the docs root and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDoc(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexContent parses data and upserts it into the DB. Exported for
// callers that already hold the file content.
func IndexContent(db *DB, path string, data []byte) error {
	return indexFile(db, path, data)
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte) error {
	res := markdown.Parse(data)

	row := DocumentRow{
		Path:      path,
		DocID:     docIDFrom(res.Metadata),
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		WordCount: docWordCount(res.Doc),
		UpdatedAt: time.Now(),
	}
	return db.UpsertDoc(row, res.Doc.PlainText(), tagsFrom(res.Metadata))
}

func docIDFrom(metadata map[string]any) string {
	id, _ := metadata["docId"].(string)
	return id
}

// tagsFrom extracts the frontmatter tags list, tolerating both string and
// list shapes.
func tagsFrom(metadata map[string]any) []string {
	switch v := metadata["tags"].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func docWordCount(doc *markdown.Node) int {
	total := 0
	for _, b := range markdown.LeafBlocks(doc) {
		total += markdown.WordCount(b.PlainText())
	}
	return total
}
