package handlers

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kozaktomas/image-to-pdf/internal/config"
	"github.com/kozaktomas/image-to-pdf/internal/layout"
	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

// DocumentHandler handles the output document of the caller's session.
type DocumentHandler struct {
	config *config.Config
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{config: cfg}
}

// DocumentResponse describes the document settings of a session.
type DocumentResponse struct {
	workspace.Info
	BaseName string   `json:"base_name"`
	Pages    []string `json:"pages"`
}

// Get returns the document name, page, theme and image count.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	info := ws.Info()
	respondJSON(w, http.StatusOK, DocumentResponse{
		Info:     info,
		BaseName: workspace.BaseName(info.Name),
		Pages:    h.config.PageNames(),
	})
}

// RenameRequest carries a new document name.
type RenameRequest struct {
	Name string `json:"name"`
}

// Rename validates and stores the document name.
func (h *DocumentHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	var req RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := ws.Dispatch(r.Context(), workspace.RenameConfirmed{Name: req.Name})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"name": res.Name})
}

// ThemeRequest selects a theme, or flips it when Toggle is set.
type ThemeRequest struct {
	Theme  workspace.Theme `json:"theme"`
	Toggle bool            `json:"toggle"`
}

// SetTheme changes the display theme.
func (h *DocumentHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	var req ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var cmd workspace.Command = workspace.ThemeSelected{Theme: req.Theme}
	if req.Toggle {
		cmd = workspace.ThemeToggled{}
	}

	res, err := ws.Dispatch(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, workspace.Preferences{Theme: res.Theme})
}

// Build assembles the document and returns it as a PDF attachment.
// The optional "page" query parameter selects a page preset such as "letter-landscape".
func (h *DocumentHandler) Build(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}

	var page *layout.PageSize
	if name := r.URL.Query().Get("page"); name != "" {
		p, err := h.config.PageSize(name)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		page = &p
	}

	res, err := ws.Dispatch(r.Context(), workspace.BuildRequested{Page: page})
	if err != nil {
		respondCommandError(w, err)
		return
	}
	doc := res.Document

	log.Printf("Built %s: %d pages, %d skipped", sanitizeForLog(doc.Name), doc.PageCount, len(doc.Failures))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("X-Page-Count", strconv.Itoa(doc.PageCount))
	w.Header().Set("X-Skipped-Images", strconv.Itoa(len(doc.Failures)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

// contentDisposition builds an attachment header with an ASCII fallback and
// the UTF-8 name for clients that support RFC 5987.
func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		workspace.ASCIIName(name), url.PathEscape(name))
}
