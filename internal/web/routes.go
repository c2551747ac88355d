package web

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/kozaktomas/image-to-pdf/internal/web/handlers"
	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
	"github.com/kozaktomas/image-to-pdf/internal/web/static"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	imagesHandler := handlers.NewImagesHandler()
	documentHandler := handlers.NewDocumentHandler(s.config)
	sessionHandler := handlers.NewSessionHandler(sessionManager)
	configHandler := handlers.NewConfigHandler(s.config)

	// Uploads and builds are the expensive calls.
	limit := httprate.LimitByIP(s.config.Web.RateLimit, time.Minute)

	// Health check (no session required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)

		// Everything else runs against the caller's session workspace
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithSession(sessionManager))

			// Images
			r.Get("/images", imagesHandler.List)
			r.With(limit).Post("/images", imagesHandler.Upload)
			r.Post("/images/reorder", imagesHandler.Reorder)
			r.Get("/images/{id}", imagesHandler.Get)
			r.Put("/images/{id}", imagesHandler.Replace)
			r.Delete("/images/{id}", imagesHandler.Delete)
			r.Post("/images/{id}/crop", imagesHandler.Crop)
			r.Put("/images/{id}/position", imagesHandler.SetPosition)

			// Document
			r.Get("/document", documentHandler.Get)
			r.Put("/document/name", documentHandler.Rename)
			r.With(limit).Post("/document/build", documentHandler.Build)
			r.Put("/preferences/theme", documentHandler.SetTheme)

			// Session
			r.Get("/session", sessionHandler.Status)
			r.Delete("/session", sessionHandler.End)
			r.Get("/notices", sessionHandler.Notices)
		})
	})

	// Serve static files for frontend
	s.router.Get("/*", s.serveSPA)
}

// contentTypes maps static file extensions to their content type.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".ico":  "image/x-icon",
}

// serveSPA serves the embedded front-end
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	f, err := fs.Open(path)
	if err != nil {
		// Unknown paths fall back to the single page.
		path = "/index.html"
		if f, err = fs.Open(path); err != nil {
			http.NotFound(w, r)
			return
		}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType := "application/octet-stream"
	if i := strings.LastIndex(path, "."); i >= 0 {
		if ct, ok := contentTypes[path[i:]]; ok {
			contentType = ct
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
