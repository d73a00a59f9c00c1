package api

import (
	"github.com/calder/inkwell/internal/index"
	"github.com/calder/inkwell/internal/markdown"
	"github.com/calder/inkwell/internal/models"
	"github.com/calder/inkwell/internal/versions"
)

// CreateDocumentRequest is the request body for creating a document from
// raw markdown.
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"drafts/essay.md" validate:"required"`
	Content string `json:"content" example:"# Essay\nFirst line." validate:"required"`
}

// SaveDocumentRequest is the request body for saving a document as a tree.
type SaveDocumentRequest struct {
	Title    string         `json:"title" example:"Essay"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Doc      *markdown.Node `json:"doc" validate:"required"`
}

// DocumentDetail is the full document response type (aliased from the
// domain layer).
type DocumentDetail = models.Document

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []models.DocumentSummary `json:"documents" validate:"required"`
	Total     int                      `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// VersionListResponse wraps the snapshot history of one document.
type VersionListResponse struct {
	Versions []versions.VersionInfo `json:"versions" validate:"required"`
}

// RestoreVersionRequest names the snapshot to restore.
type RestoreVersionRequest struct {
	Path      string `json:"path" example:"drafts/essay.md" validate:"required"`
	Timestamp int64  `json:"timestamp" example:"1761134400000" validate:"required"`
}

// Workspace mutation requests. Node ids are file paths for documents and
// generated ids for folders.

type WorkspaceAddDocRequest struct {
	ContainerID string `json:"containerId,omitempty"`
	File        string `json:"file" validate:"required"`
	Title       string `json:"title,omitempty"`
	AfterID     string `json:"afterId,omitempty"`
}

type WorkspaceAddFolderRequest struct {
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name" validate:"required"`
}

type WorkspaceMoveRequest struct {
	ID       string `json:"id" validate:"required"`
	TargetID string `json:"targetId,omitempty"`
	AfterID  string `json:"afterId,omitempty"`
}

type WorkspaceReorderRequest struct {
	ID      string `json:"id" validate:"required"`
	AfterID string `json:"afterId,omitempty"`
}

type WorkspaceRemoveRequest struct {
	ID string `json:"id" validate:"required"`
}
