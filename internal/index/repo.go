package index

import (
	"fmt"
	"time"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	DocID     string
	Title     string
	Checksum  string
	WordCount int
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertDoc inserts or replaces a document and its tags within a transaction.
func (db *DB) UpsertDoc(row DocumentRow, body string, tags []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, doc_id, title, checksum, word_count, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			doc_id     = excluded.doc_id,
			title      = excluded.title,
			checksum   = excluded.checksum,
			word_count = excluded.word_count,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.DocID, row.Title, row.Checksum, row.WordCount, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// Replace tags: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM tags WHERE path = ?`, row.Path)
	if len(tags) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO tags (path, tag) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for _, tag := range tags {
			if _, err := stmt.Exec(row.Path, tag); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDoc removes a document and its tags.
func (db *DB) DeleteDoc(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM tags WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetDoc returns the indexed row for path, or nil when not indexed.
func (db *DB) GetDoc(path string) (*DocumentRow, error) {
	var row DocumentRow
	err := db.conn.QueryRow(`
		SELECT path, doc_id, title, checksum, word_count, updated_at
		FROM documents WHERE path = ?
	`, path).Scan(&row.Path, &row.DocID, &row.Title, &row.Checksum, &row.WordCount, &row.UpdatedAt)
	if err != nil {
		return nil, nil // not found is fine
	}
	return &row, nil
}

// GetChecksum returns the stored checksum for a document, or empty string
// if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocs returns a page of documents plus the total count. tag filters to
// documents carrying that tag; sort is "updated" (default), "title", or
// "path".
func (db *DB) ListDocs(limit, offset int, tag, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	order := "updated_at DESC"
	switch sort {
	case "title":
		order = "title COLLATE NOCASE ASC"
	case "path":
		order = "path ASC"
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE path IN (SELECT path FROM tags WHERE tag = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT path, doc_id, title, checksum, word_count, updated_at
		FROM documents %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, order)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var r DocumentRow
		if err := rows.Scan(&r.Path, &r.DocID, &r.Title, &r.Checksum, &r.WordCount, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Tags returns the tags assigned to a document.
func (db *DB) Tags(path string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT tag FROM tags WHERE path = ? ORDER BY tag`, path)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AssignTag adds a single tag to a document, keeping existing tags.
func (db *DB) AssignTag(path, tag string) error {
	if _, err := db.conn.Exec(`INSERT OR IGNORE INTO tags (path, tag) VALUES (?, ?)`, path, tag); err != nil {
		return fmt.Errorf("index: assign tag: %w", err)
	}
	return nil
}
