package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calder/inkwell/internal/docservice"
	"github.com/calder/inkwell/internal/workspace"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// notify, if non-nil, is called after workspace mutations.
func NewRouter(svc *docservice.Service, ws *workspace.Manager, authEnabled bool, token string, sseHandler http.Handler, notify docservice.Notify) chi.Router {
	h := NewHandler(svc, ws, notify)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.SaveDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Search.
	r.Get("/search", h.Search)

	// Version history. Documents are addressed by path in the query string
	// because paths contain slashes.
	r.Get("/versions", h.ListVersions)
	r.Get("/versions/content", h.VersionContent)
	r.Post("/versions/restore", h.RestoreVersion)

	// Workspace tree.
	r.Get("/workspace", h.GetWorkspace)
	r.Post("/workspace/docs", h.WorkspaceAddDoc)
	r.Post("/workspace/folders", h.WorkspaceAddFolder)
	r.Post("/workspace/move", h.WorkspaceMove)
	r.Post("/workspace/reorder", h.WorkspaceReorder)
	r.Post("/workspace/remove", h.WorkspaceRemove)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
