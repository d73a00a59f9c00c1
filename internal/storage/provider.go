// Package storage defines the document file-system abstraction.
package storage

import "time"

// FileMeta describes one stored document file.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Provider is the interface for document file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the docs root).
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the docs root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the docs root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the docs root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the docs root).
	Move(oldPath, newPath string) error
}
