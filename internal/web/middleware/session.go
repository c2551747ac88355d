package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kozaktomas/image-to-pdf/internal/constants"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

const sessionCookieName = "image_to_pdf_session"

// Session is one browser tab's editing session. Its workspace lives only in memory.
type Session struct {
	ID        string               `json:"id"`
	Workspace *workspace.Workspace `json:"-"`
	CreatedAt time.Time            `json:"created_at"`

	mu        sync.Mutex
	expiresAt time.Time
}

// ExpiresAt returns when the session is torn down unless it is used again.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) touch(ttl time.Duration) {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(ttl)
	s.mu.Unlock()
}

// WorkspaceFactory creates the workspace of a new session.
type WorkspaceFactory func() *workspace.Workspace

// SessionManager handles session creation and validation. Sessions expire
// after a period without requests and their workspace is closed on eviction.
type SessionManager struct {
	secret       []byte
	ttl          time.Duration
	sessions     *cache.Cache
	newWorkspace WorkspaceFactory
}

// NewSessionManager creates a new session manager
func NewSessionManager(secret string, ttl time.Duration, factory WorkspaceFactory) *SessionManager {
	if secret == "" {
		// Cookies only need to survive this process, so a random key is enough.
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("failed to generate session secret: " + err.Error())
		}
		secret = string(key)
	}
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	if factory == nil {
		factory = func() *workspace.Workspace { return workspace.New(workspace.Config{}) }
	}

	sm := &SessionManager{
		secret:       []byte(secret),
		ttl:          ttl,
		sessions:     cache.New(ttl, constants.SessionCleanupInterval),
		newWorkspace: factory,
	}
	sm.sessions.OnEvicted(func(id string, v any) {
		if session, ok := v.(*Session); ok {
			session.Workspace.Close()
			log.Printf("Session %s closed", shortID(id))
		}
	})
	return sm
}

// CreateSession creates a new session with an empty workspace
func (sm *SessionManager) CreateSession() (*Session, error) {
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}
	sessionID := base64.URLEncoding.EncodeToString(idBytes)

	session := &Session{
		ID:        sessionID,
		Workspace: sm.newWorkspace(),
		CreatedAt: time.Now(),
	}
	session.touch(sm.ttl)

	sm.sessions.Set(sessionID, session, sm.ttl)
	return session, nil
}

// GetSession retrieves a session by ID and extends its lifetime
func (sm *SessionManager) GetSession(sessionID string) *Session {
	v, ok := sm.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	session, ok := v.(*Session)
	if !ok {
		return nil
	}

	if !sm.refresh(sessionID, session) {
		return nil
	}
	return session
}

// refresh extends the lifetime of a live session. It fails when the session
// was evicted after it was read, so a closed workspace is never put back.
func (sm *SessionManager) refresh(sessionID string, session *Session) bool {
	// Replace swaps the item without triggering eviction and refuses
	// missing or expired keys.
	if err := sm.sessions.Replace(sessionID, session, sm.ttl); err != nil {
		return false
	}
	session.touch(sm.ttl)
	return true
}

// DeleteSession removes a session and closes its workspace
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.sessions.Delete(sessionID)
}

// DeleteExpired evicts every expired session now instead of waiting for the janitor
func (sm *SessionManager) DeleteExpired() {
	sm.sessions.DeleteExpired()
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	return sm.sessions.ItemCount()
}

// Stop closes every session
func (sm *SessionManager) Stop() {
	sm.sessions.DeleteExpired()
	for id := range sm.sessions.Items() {
		sm.sessions.Delete(id)
	}
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // served on loopback
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a request
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	sessionID, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !sm.verifySignature(sessionID, signature) {
		return nil
	}
	return sm.GetSession(sessionID)
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// SessionData is a helper struct for JSON responses
type SessionData struct {
	SessionID string `json:"session_id"`
	ExpiresAt string `json:"expires_at"`
}

// ToJSON returns the session data for JSON response
func (s *Session) ToJSON() SessionData {
	return SessionData{
		SessionID: shortID(s.ID),
		ExpiresAt: s.ExpiresAt().Format(time.RFC3339),
	}
}

// MarshalJSON implements json.Marshaler (excludes the full session ID)
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON())
}

// shortID returns a log-safe prefix of a session ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
