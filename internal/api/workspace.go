package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/calder/inkwell/internal/apperr"
)

// workspaceError maps tree errors to HTTP status codes.
func workspaceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorBody("document already in workspace"))
	case errors.Is(err, apperr.ErrDepthExceeded):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("maximum folder depth exceeded"))
	default:
		slog.Error("workspace mutation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func (h *Handler) workspaceChanged() {
	if h.notify != nil {
		h.notify("workspace.updated", "")
	}
}

// GetWorkspace handles GET /api/workspace.
//
//	@Summary		Get the full workspace tree
//	@Tags			workspace
//	@Produce		json
//	@Success		200	{object}	object
//	@Security		BearerAuth
//	@Router			/workspace [get]
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	data, err := h.ws.Snapshot()
	if err != nil {
		slog.Error("workspace snapshot failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// WorkspaceAddDoc handles POST /api/workspace/docs.
//
//	@Summary		Add a document reference to the workspace
//	@Tags			workspace
//	@Accept			json
//	@Param			body	body	WorkspaceAddDocRequest	true	"Document to add"
//	@Success		204		"Added"
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workspace/docs [post]
func (h *Handler) WorkspaceAddDoc(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceAddDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.File == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("file is required"))
		return
	}
	if err := h.ws.AddDoc(req.ContainerID, req.File, req.Title, req.AfterID); err != nil {
		workspaceError(w, err)
		return
	}
	h.workspaceChanged()
	w.WriteHeader(http.StatusNoContent)
}

// WorkspaceAddFolder handles POST /api/workspace/folders.
//
//	@Summary		Create a folder in the workspace
//	@Tags			workspace
//	@Accept			json
//	@Produce		json
//	@Param			body	body		WorkspaceAddFolderRequest	true	"Folder to create"
//	@Success		201		{object}	object
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workspace/folders [post]
func (h *Handler) WorkspaceAddFolder(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceAddFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	node, err := h.ws.AddContainer(req.ParentID, req.Name)
	if err != nil {
		workspaceError(w, err)
		return
	}
	h.workspaceChanged()
	writeJSON(w, http.StatusCreated, node)
}

// WorkspaceMove handles POST /api/workspace/move.
//
//	@Summary		Move a node into another folder (or the root)
//	@Tags			workspace
//	@Accept			json
//	@Param			body	body	WorkspaceMoveRequest	true	"Move description"
//	@Success		204		"Moved"
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workspace/move [post]
func (h *Handler) WorkspaceMove(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.ws.Move(req.ID, req.TargetID, req.AfterID); err != nil {
		workspaceError(w, err)
		return
	}
	h.workspaceChanged()
	w.WriteHeader(http.StatusNoContent)
}

// WorkspaceReorder handles POST /api/workspace/reorder.
//
//	@Summary		Reposition a node within its current folder
//	@Tags			workspace
//	@Accept			json
//	@Param			body	body	WorkspaceReorderRequest	true	"Reorder description"
//	@Success		204		"Reordered"
//	@Security		BearerAuth
//	@Router			/workspace/reorder [post]
func (h *Handler) WorkspaceReorder(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.ws.Reorder(req.ID, req.AfterID); err != nil {
		workspaceError(w, err)
		return
	}
	h.workspaceChanged()
	w.WriteHeader(http.StatusNoContent)
}

// WorkspaceRemove handles POST /api/workspace/remove.
//
//	@Summary		Remove a node (and its subtree) from the workspace
//	@Tags			workspace
//	@Accept			json
//	@Param			body	body	WorkspaceRemoveRequest	true	"Node to remove"
//	@Success		204		"Removed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workspace/remove [post]
func (h *Handler) WorkspaceRemove(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceRemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if _, err := h.ws.Remove(req.ID); err != nil {
		workspaceError(w, err)
		return
	}
	h.workspaceChanged()
	w.WriteHeader(http.StatusNoContent)
}
