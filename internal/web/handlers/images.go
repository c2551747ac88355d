package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/image-to-pdf/internal/constants"
	"github.com/kozaktomas/image-to-pdf/internal/crop"
	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

// ImagesHandler handles the image collection of the caller's session.
type ImagesHandler struct{}

// NewImagesHandler creates a new images handler.
func NewImagesHandler() *ImagesHandler {
	return &ImagesHandler{}
}

// List returns the images in order.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}
	respondJSON(w, http.StatusOK, ws.Images())
}

// Get returns the current binary of one image.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	data, err := ws.ImageData(chi.URLParam(r, "id"))
	if err != nil {
		respondCommandError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Replace stores a binary cropped by the front-end in place of the current one.
func (h *ImagesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxReplaceSize))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := ws.Dispatch(r.Context(), workspace.ReplaceConfirmed{EntryID: id, Data: data}); err != nil {
		respondCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Crop crops an image on the server and stores the result in place.
func (h *ImagesHandler) Crop(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	var req crop.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := ws.Dispatch(r.Context(), workspace.CropConfirmed{EntryID: id, Request: req}); err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ws.Images())
}

// Delete removes an image.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	if _, err := ws.Dispatch(r.Context(), workspace.RemoveRequested{EntryID: chi.URLParam(r, "id")}); err != nil {
		respondCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PositionRequest moves one image to a zero-based index.
type PositionRequest struct {
	Index *int `json:"index"`
}

// SetPosition moves an image to a new index.
func (h *ImagesHandler) SetPosition(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	var req PositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Index == nil {
		respondError(w, http.StatusBadRequest, "index is required")
		return
	}

	cmd := workspace.MoveConfirmed{EntryID: chi.URLParam(r, "id"), TargetIndex: *req.Index}
	if _, err := ws.Dispatch(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ws.Images())
}

// ReorderRequest is the drag-and-drop result of a sortable list.
type ReorderRequest struct {
	OldIndex *int `json:"old_index"`
	NewIndex *int `json:"new_index"`
}

// Reorder moves the image at old_index to new_index.
func (h *ImagesHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OldIndex == nil || req.NewIndex == nil {
		respondError(w, http.StatusBadRequest, "old_index and new_index are required")
		return
	}

	cmd := workspace.ReorderConfirmed{OldIndex: *req.OldIndex, NewIndex: *req.NewIndex}
	if _, err := ws.Dispatch(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ws.Images())
}
