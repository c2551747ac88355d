package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/image-to-pdf/internal/assembler"
	"github.com/kozaktomas/image-to-pdf/internal/compress"
	"github.com/kozaktomas/image-to-pdf/internal/config"
	"github.com/kozaktomas/image-to-pdf/internal/crop"
	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

// testConfig loads the config with the embedded page presets
func testConfig() *config.Config {
	return config.Load()
}

// testWorkspace creates a workspace with the real engines
func testWorkspace() *workspace.Workspace {
	return workspace.New(workspace.Config{
		Compressor: compress.New(compress.DefaultOptions()),
		Cropper:    crop.New(crop.DefaultQuality),
		Builder:    assembler.New(),
	})
}

// newTestSession creates a session manager and one session in it
func newTestSession(t *testing.T) (*middleware.SessionManager, *middleware.Session) {
	t.Helper()
	sm := middleware.NewSessionManager("test-secret", time.Hour, testWorkspace)
	t.Cleanup(sm.Stop)

	session, err := sm.CreateSession()
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sm, session
}

// requestWithSession creates a request with the session in context
func requestWithSession(method, path string, body io.Reader, session *middleware.Session) *http.Request {
	req := httptest.NewRequest(method, path, body)
	ctx := middleware.SetSessionInContext(req.Context(), session)
	return req.WithContext(ctx)
}

// jsonBody encodes v as a request body
func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// pngBytes encodes a solid image of the given size
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 30, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// addImages puts images into the session workspace directly
func addImages(t *testing.T, session *middleware.Session, files ...[]byte) []string {
	t.Helper()
	ids, err := session.Workspace.AddFiles(files)
	if err != nil {
		t.Fatalf("failed to add images: %v", err)
	}
	return ids
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
