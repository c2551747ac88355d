package middleware

import (
	"context"
	"net/http"

	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession is middleware that attaches the caller's session to the request,
// creating a new session and cookie on the first request.
func WithSession(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				var err error
				session, err = sm.CreateSession()
				if err != nil {
					http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
					return
				}
				sm.SetSessionCookie(w, session)
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use WithSession middleware in production.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// MustGetWorkspace returns the session workspace or writes a 401 and returns nil.
func MustGetWorkspace(ctx context.Context, w http.ResponseWriter) *workspace.Workspace {
	session := GetSessionFromContext(ctx)
	if session == nil || session.Workspace == nil {
		http.Error(w, `{"error": "no session"}`, http.StatusUnauthorized)
		return nil
	}
	return session.Workspace
}
