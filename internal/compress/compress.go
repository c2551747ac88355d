// Package compress shrinks ingested images to a byte budget and a maximum
// dimension before they enter the collection. Compression never fails: on any
// error the original binary is returned unchanged.
package compress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/image-to-pdf/internal/exif"
)

// Defaults match the limits the browser front-end used.
const (
	DefaultMaxBytes     = 1 << 20
	DefaultMaxDimension = 1920
	DefaultQuality      = 85
	DefaultMinQuality   = 40
	qualityStep         = 10
)

// Options configures a Compressor.
type Options struct {
	MaxBytes     int // target upper bound for the encoded size
	MaxDimension int // longest side in pixels
	Quality      int // first JPEG quality tried
	MinQuality   int // lowest JPEG quality tried before giving up
}

// DefaultOptions returns the default compression budget.
func DefaultOptions() Options {
	return Options{
		MaxBytes:     DefaultMaxBytes,
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
		MinQuality:   DefaultMinQuality,
	}
}

// Compressor downscales and re-encodes images.
type Compressor struct {
	opts Options
}

// New creates a Compressor. Zero or invalid option values fall back to defaults.
func New(opts Options) *Compressor {
	def := DefaultOptions()
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = def.MaxBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = def.MaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = def.Quality
	}
	if opts.MinQuality <= 0 || opts.MinQuality > opts.Quality {
		opts.MinQuality = min(def.MinQuality, opts.Quality)
	}
	return &Compressor{opts: opts}
}

// Options returns the effective options.
func (c *Compressor) Options() Options {
	return c.opts
}

// Compress returns data shrunk to fit the budget, or data itself if it already
// fits or cannot be compressed.
func (c *Compressor) Compress(data []byte) []byte {
	out, err := c.compress(data)
	if err != nil {
		slog.Warn("compression failed, keeping original", "bytes", len(data), "error", err)
		return data
	}
	return out
}

func (c *Compressor) compress(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}

	// A rotated JPEG is re-encoded upright so every later stage sees the
	// displayed pixels.
	rotated := exif.Orientation(data) != exif.Normal
	resized := cfg.Width > c.opts.MaxDimension || cfg.Height > c.opts.MaxDimension
	if !rotated && !resized && len(data) <= c.opts.MaxBytes {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = imaging.Fit(img, c.opts.MaxDimension, c.opts.MaxDimension, imaging.CatmullRom)

	var buf bytes.Buffer
	for quality := c.opts.Quality; ; quality -= qualityStep {
		if quality < c.opts.MinQuality {
			quality = c.opts.MinQuality
		}
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		if buf.Len() <= c.opts.MaxBytes || quality == c.opts.MinQuality {
			break
		}
	}

	// A same-size re-encode that did not shrink the file is not worth the quality loss.
	if !resized && !rotated && buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}
