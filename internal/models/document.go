// Package models defines the domain types for Inkwell.
package models

import (
	"time"

	"github.com/calder/inkwell/internal/markdown"
)

// Document is a fully loaded document: raw bytes, parsed tree, and the
// header fields the editor works with.
type Document struct {
	Path      string          `json:"path"`
	DocID     string          `json:"docId,omitempty"`
	Title     string          `json:"title,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	Doc       *markdown.Node  `json:"doc"`
	Content   []byte          `json:"-"`
	Checksum  string          `json:"checksum"`
	WordCount int             `json:"wordCount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DocumentSummary is a lightweight representation returned by list and
// search operations.
type DocumentSummary struct {
	Path      string    `json:"path"`
	DocID     string    `json:"docId,omitempty"`
	Title     string    `json:"title,omitempty"`
	WordCount int       `json:"wordCount"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updatedAt"`
	Snippet   string    `json:"snippet,omitempty"`
}
