package handlers

import (
	"net/http"

	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
)

// SessionHandler handles notices and the lifetime of the caller's session.
type SessionHandler struct {
	sessionManager *middleware.SessionManager
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sm *middleware.SessionManager) *SessionHandler {
	return &SessionHandler{sessionManager: sm}
}

// Status returns the session expiry.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "no session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// Notices drains the queued user-facing messages.
func (h *SessionHandler) Notices(w http.ResponseWriter, r *http.Request) {
	ws := middleware.MustGetWorkspace(r.Context(), w)
	if ws == nil {
		return
	}
	respondJSON(w, http.StatusOK, ws.Notices())
}

// End tears down the session and releases every image.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSessionFromContext(r.Context()); session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}
	h.sessionManager.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
