package constants

import "time"

// File upload constants
const (
	// MaxUploadSize is the maximum multipart upload size in bytes (100MB)
	MaxUploadSize = 100 << 20

	// MultipartMemory is the part of a multipart upload kept in memory before spilling to disk (32MB)
	MultipartMemory = 32 << 20

	// MaxReplaceSize is the maximum body size for a replaced (externally cropped) image (50MB)
	MaxReplaceSize = 50 << 20
)

// Session constants
const (
	// DefaultSessionTTL is how long an idle editing session is kept
	DefaultSessionTTL = 2 * time.Hour

	// SessionCleanupInterval is how often expired sessions are torn down
	SessionCleanupInterval = 10 * time.Minute
)

// Rate limit constants
const (
	// DefaultBuildsPerMinute is the default per-IP limit for document builds
	DefaultBuildsPerMinute = 30
)

// Server constants
const (
	// DefaultPort is the default port of the workspace API
	DefaultPort = 8085

	// DefaultHost binds the workspace API to loopback only
	DefaultHost = "127.0.0.1"
)
