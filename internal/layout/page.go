package layout

import "fmt"

// Orientation of a page.
type Orientation string

// Page orientations.
const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// PageSize is the fixed page geometry used for every page of one document.
type PageSize struct {
	Name   string  `json:"name" yaml:"name"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// A4 is the default page size, portrait.
var A4 = PageSize{Name: "a4", Width: 595.28, Height: 841.89}

// Orientation reports whether the page is portrait or landscape.
func (p PageSize) Orientation() Orientation {
	if p.Width > p.Height {
		return Landscape
	}
	return Portrait
}

// Landscape returns the page rotated so its long side is horizontal.
func (p PageSize) Landscape() PageSize {
	if p.Orientation() == Landscape {
		return p
	}
	return PageSize{Name: p.Name, Width: p.Height, Height: p.Width}
}

// Portrait returns the page rotated so its long side is vertical.
func (p PageSize) Portrait() PageSize {
	if p.Orientation() == Portrait {
		return p
	}
	return PageSize{Name: p.Name, Width: p.Height, Height: p.Width}
}

// Validate checks that both sides are positive.
func (p PageSize) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("page %q %gx%g: %w", p.Name, p.Width, p.Height, ErrInvalidDimensions)
	}
	return nil
}

func (p PageSize) String() string {
	return fmt.Sprintf("%s %s (%.2fx%.2fpt)", p.Name, p.Orientation(), p.Width, p.Height)
}
