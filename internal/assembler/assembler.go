// Package assembler lays out an ordered snapshot of images onto fixed-size
// PDF pages, one page per image.
//
// Entries are processed strictly in snapshot order. An entry that cannot be
// decoded is skipped with a warning; only an empty result or a failure to
// encode the document fails the build.
package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/kozaktomas/image-to-pdf/internal/collection"
	"github.com/kozaktomas/image-to-pdf/internal/layout"
	"github.com/kozaktomas/image-to-pdf/internal/notify"
)

// Assembly errors.
var (
	ErrEmptyDocument  = errors.New("no pages to write")
	ErrArtifactEncode = errors.New("failed to encode document")
	ErrDecodeFailure  = errors.New("failed to decode image")
)

// Failure records one skipped entry.
type Failure struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Error string `json:"error"`
}

// PlacedPage describes one page of the document.
type PlacedPage struct {
	Number    int              `json:"number"`
	Index     int              `json:"index"`
	ID        string           `json:"id"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Placement layout.Placement `json:"placement"`
}

// Artifact is an assembled document.
type Artifact struct {
	Data      []byte
	PageCount int
	Page      layout.PageSize
	Pages     []PlacedPage
	Failures  []Failure
}

// Assembler builds PDF documents.
type Assembler struct {
	notifier notify.Notifier
	creator  string
	now      func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithNotifier routes per-entry warnings to n.
func WithNotifier(n notify.Notifier) Option {
	return func(a *Assembler) {
		a.notifier = n
	}
}

// WithCreator sets the PDF creator metadata.
func WithCreator(creator string) Option {
	return func(a *Assembler) {
		a.creator = creator
	}
}

// WithClock overrides the creation-date clock.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		notifier: notify.Discard,
		creator:  "image-to-pdf",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build writes one page per decodable entry of snap, in order, on pages of size page.
// The snapshot is read-only; later changes to the collection it came from do not affect the build.
func (a *Assembler) Build(ctx context.Context, snap collection.Snapshot, page layout.PageSize) (*Artifact, error) {
	return a.build(ctx, snap, page, a.notifier)
}

// BuildWithNotifier is Build with a per-call notifier replacing the default one.
func (a *Assembler) BuildWithNotifier(ctx context.Context, snap collection.Snapshot, page layout.PageSize, n notify.Notifier) (*Artifact, error) {
	if n == nil {
		n = notify.Discard
	}
	return a.build(ctx, snap, page, n)
}

func (a *Assembler) build(ctx context.Context, snap collection.Snapshot, page layout.PageSize, n notify.Notifier) (*Artifact, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	pdf := a.newDocument(page)
	artifact := &Artifact{Page: page}

	for i := range snap.Len() {
		entry := snap.At(i)

		placed, err := a.addPage(pdf, entry, page)
		if err != nil {
			if errors.Is(err, ErrArtifactEncode) {
				return artifact, err
			}
			slog.WarnContext(ctx, "skipping image", "index", entry.Index, "id", entry.ID, "error", err)
			artifact.Failures = append(artifact.Failures, Failure{Index: entry.Index, ID: entry.ID, Error: err.Error()})
			n.Notify(notify.LevelWarning, fmt.Sprintf("Image %d could not be loaded and was skipped.", entry.Index+1))
			continue
		}
		artifact.PageCount++
		placed.Number = artifact.PageCount
		artifact.Pages = append(artifact.Pages, placed)
	}

	if artifact.PageCount == 0 {
		return artifact, ErrEmptyDocument
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return artifact, fmt.Errorf("%w: %w", ErrArtifactEncode, err)
	}
	artifact.Data = buf.Bytes()

	slog.InfoContext(ctx, "document assembled", "pages", artifact.PageCount, "skipped", len(artifact.Failures), "bytes", len(artifact.Data))
	return artifact, nil
}

func (a *Assembler) newDocument(page layout.PageSize) *gofpdf.Fpdf {
	// gofpdf takes the portrait size and swaps it for landscape documents.
	orientation := "P"
	if page.Orientation() == layout.Landscape {
		orientation = "L"
	}
	portrait := page.Portrait()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: portrait.Width, Ht: portrait.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(a.creator, true)
	pdf.SetCreationDate(a.now())
	return pdf
}

// addPage decodes one entry, places it and draws it on a new page.
// The document is left untouched when an error is returned.
func (a *Assembler) addPage(pdf *gofpdf.Fpdf, entry collection.SnapshotEntry, page layout.PageSize) (PlacedPage, error) {
	img, err := prepare(entry.Data)
	if err != nil {
		return PlacedPage{}, err
	}

	placement, err := layout.PlaceOn(img.width, img.height, page)
	if err != nil {
		return PlacedPage{}, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	name := fmt.Sprintf("img-%d-%s", entry.Index, entry.ID)
	opts := gofpdf.ImageOptions{ImageType: img.pdfType, ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return PlacedPage{}, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	pdf.AddPage()
	pdf.ImageOptions(name, placement.OffsetX, placement.OffsetY, placement.RenderWidth, placement.RenderHeight, false, opts, 0, "")
	if pdf.Err() {
		// Registration succeeded, so a drawing error means the document itself is broken.
		return PlacedPage{}, fmt.Errorf("%w: %w", ErrArtifactEncode, pdf.Error())
	}

	return PlacedPage{
		Index:     entry.Index,
		ID:        entry.ID,
		Width:     img.width,
		Height:    img.height,
		Placement: placement,
	}, nil
}
