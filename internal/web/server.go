package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/image-to-pdf/internal/assembler"
	"github.com/kozaktomas/image-to-pdf/internal/compress"
	"github.com/kozaktomas/image-to-pdf/internal/config"
	"github.com/kozaktomas/image-to-pdf/internal/crop"
	"github.com/kozaktomas/image-to-pdf/internal/web/middleware"
	"github.com/kozaktomas/image-to-pdf/internal/workspace"
)

// Server represents the web server
type Server struct {
	config         *config.Config
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, port int, host string, sessionSecret string) *Server {
	r := chi.NewRouter()

	ttl := time.Duration(cfg.Web.SessionTTL) * time.Minute
	sessionManager := middleware.NewSessionManager(sessionSecret, ttl, NewWorkspaceFactory(cfg))

	s := &Server{
		config:         cfg,
		router:         r,
		sessionManager: sessionManager,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes(sessionManager)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  2 * time.Minute, // large multipart uploads
		WriteTimeout: 5 * time.Minute, // long documents
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// NewWorkspaceFactory returns a factory that wires the compressor, crop engine
// and assembler configured in cfg into every new session workspace.
func NewWorkspaceFactory(cfg *config.Config) middleware.WorkspaceFactory {
	compressor := compress.New(compress.Options{
		MaxBytes:     cfg.Compression.MaxBytes,
		MaxDimension: cfg.Compression.MaxDimension,
		Quality:      cfg.Compression.Quality,
	})
	cropper := crop.New(crop.DefaultQuality)
	builder := assembler.New(assembler.WithCreator("image-to-pdf"))
	page := cfg.DefaultPage()

	return func() *workspace.Workspace {
		return workspace.New(workspace.Config{
			Compressor: compressor,
			Cropper:    cropper,
			Builder:    builder,
			Page:       page,
			Name:       cfg.Document.Name,
		})
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and releases every session
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	err := s.httpServer.Shutdown(ctx)

	// Sessions are released even when connections did not drain in time.
	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}
	if err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Sessions returns the session manager for testing
func (s *Server) Sessions() *middleware.SessionManager {
	return s.sessionManager
}
