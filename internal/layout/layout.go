// Package layout places an image on a fixed-size page.
//
// All values are in PDF points (1/72 inch). Images are scaled uniformly so
// they fit the page on both axes and are centered.
package layout

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions is returned for non-positive image or page dimensions.
var ErrInvalidDimensions = errors.New("invalid dimensions")

// Placement is where an image is drawn on a page.
type Placement struct {
	OffsetX      float64 `json:"offset_x"`
	OffsetY      float64 `json:"offset_y"`
	RenderWidth  float64 `json:"render_width"`
	RenderHeight float64 `json:"render_height"`
}

// Place scales an image of imageW x imageH pixels onto a pageW x pageH page.
// The image is fitted to the page width first and falls back to the page
// height when the scaled height would overflow.
func Place(imageW, imageH, pageW, pageH float64) (Placement, error) {
	if imageW <= 0 || imageH <= 0 {
		return Placement{}, fmt.Errorf("image %gx%g: %w", imageW, imageH, ErrInvalidDimensions)
	}
	if pageW <= 0 || pageH <= 0 {
		return Placement{}, fmt.Errorf("page %gx%g: %w", pageW, pageH, ErrInvalidDimensions)
	}

	renderW := pageW
	renderH := imageH * (pageW / imageW)
	if renderH > pageH {
		scale := pageH / imageH
		renderW = imageW * scale
		renderH = pageH
	}

	return Placement{
		OffsetX:      (pageW - renderW) / 2,
		OffsetY:      (pageH - renderH) / 2,
		RenderWidth:  renderW,
		RenderHeight: renderH,
	}, nil
}

// PlaceOn is Place with the page geometry taken from a PageSize.
func PlaceOn(imageW, imageH int, page PageSize) (Placement, error) {
	return Place(float64(imageW), float64(imageH), page.Width, page.Height)
}
