// Package crop applies a user-confirmed crop, rotation and flip to an
// encoded image and returns a newly encoded JPEG.
package crop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrCropFailure wraps every failure of the crop engine.
var ErrCropFailure = errors.New("crop failed")

// DefaultQuality is the JPEG quality of cropped output.
const DefaultQuality = 100

// Request is the region confirmed in the crop widget.
// The rectangle is in pixels of the image after rotation and flipping.
type Request struct {
	X              int     `json:"x"`
	Y              int     `json:"y"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Rotate         float64 `json:"rotate"` // degrees, clockwise
	FlipHorizontal bool    `json:"flip_horizontal"`
	FlipVertical   bool    `json:"flip_vertical"`
}

// Rect returns the requested region as an image rectangle.
func (r Request) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Engine crops images. The zero value is not usable; use New.
type Engine struct {
	quality    int
	background color.Color
}

// New creates a crop engine encoding at the given JPEG quality.
func New(quality int) *Engine {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Engine{quality: quality, background: color.White}
}

// Crop decodes src, applies req and encodes the result.
// It never retains src or the result.
func (e *Engine) Crop(src []byte, req Request) ([]byte, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid crop dimensions: width=%d, height=%d", ErrCropFailure, req.Width, req.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", ErrCropFailure, err)
	}

	img = e.transform(img, req)

	bounds := img.Bounds()
	rect := req.Rect().Add(bounds.Min)
	if !rect.In(bounds) {
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			return nil, fmt.Errorf("%w: crop rectangle is outside image bounds", ErrCropFailure)
		}
	}

	cropped := imaging.Crop(img, rect)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG, imaging.JPEGQuality(e.quality)); err != nil {
		return nil, fmt.Errorf("%w: failed to encode image: %w", ErrCropFailure, err)
	}
	return buf.Bytes(), nil
}

// transform rotates and flips img. The widget reports clockwise degrees while
// imaging rotates counter-clockwise.
func (e *Engine) transform(img image.Image, req Request) image.Image {
	var out image.Image = img
	switch angle := normalizeAngle(req.Rotate); angle {
	case 0:
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	default:
		out = imaging.Rotate(out, -angle, e.background)
	}
	if req.FlipHorizontal {
		out = imaging.FlipH(out)
	}
	if req.FlipVertical {
		out = imaging.FlipV(out)
	}
	return out
}

// normalizeAngle maps any angle to [0, 360).
func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
