// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Ingestion constants
const (
	// DefaultConcurrency is the default number of parallel compression workers
	DefaultConcurrency = 4

	// MaxImageSize is the maximum dimension (width or height) kept after compression
	MaxImageSize = 1920

	// MaxCompressedBytes is the byte budget for one compressed image (1MB)
	MaxCompressedBytes = 1 << 20
)

// Notice constants
const (
	// NoticeQueueSize is the number of notices kept per session before the oldest are dropped
	NoticeQueueSize = 100
)
