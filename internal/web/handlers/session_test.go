package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/image-to-pdf/internal/notify"
	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
)

func TestSessionHandler_Notices(t *testing.T) {
	sm, session := newTestSession(t)
	handler := NewSessionHandler(sm)

	if _, err := session.Workspace.Rename(""); err == nil {
		t.Fatal("expected rename to fail")
	}

	recorder := httptest.NewRecorder()
	handler.Notices(recorder, requestWithSession(http.MethodGet, "/api/v1/notices", nil, session))

	assertStatusCode(t, recorder, http.StatusOK)
	var notices []notify.Notice
	parseJSONResponse(t, recorder, &notices)
	if len(notices) != 1 || notices[0].Level != notify.LevelWarning {
		t.Fatalf("expected one warning, got %+v", notices)
	}
	if notices[0].Message != "PDF name cannot be empty." {
		t.Errorf("unexpected message %q", notices[0].Message)
	}

	// Drained.
	recorder = httptest.NewRecorder()
	handler.Notices(recorder, requestWithSession(http.MethodGet, "/api/v1/notices", nil, session))
	parseJSONResponse(t, recorder, &notices)
	if len(notices) != 0 {
		t.Errorf("expected no notices after drain, got %+v", notices)
	}
}

func TestSessionHandler_Status(t *testing.T) {
	sm, session := newTestSession(t)
	handler := NewSessionHandler(sm)

	recorder := httptest.NewRecorder()
	handler.Status(recorder, requestWithSession(http.MethodGet, "/api/v1/session", nil, session))

	assertStatusCode(t, recorder, http.StatusOK)
	var data middleware.SessionData
	parseJSONResponse(t, recorder, &data)
	if data.ExpiresAt == "" {
		t.Error("expected expires_at")
	}
}

func TestSessionHandler_End(t *testing.T) {
	sm, session := newTestSession(t)
	addImages(t, session, pngBytes(t, 2, 2))
	handler := NewSessionHandler(sm)

	recorder := httptest.NewRecorder()
	handler.End(recorder, requestWithSession(http.MethodDelete, "/api/v1/session", nil, session))

	assertStatusCode(t, recorder, http.StatusNoContent)
	if sm.GetSession(session.ID) != nil {
		t.Error("expected session to be deleted")
	}
	if session.Workspace.Snapshot().Len() != 0 {
		t.Error("expected workspace to be torn down")
	}
	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected the cookie to be cleared, got %+v", cookies)
	}
}
