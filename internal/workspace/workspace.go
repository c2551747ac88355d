// Package workspace is one user's editing session: the image collection,
// the output document name and the display preferences, driven through a
// single set of commands.
package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/kozaktomas/image-to-pdf/internal/assembler"
	"github.com/kozaktomas/image-to-pdf/internal/collection"
	"github.com/kozaktomas/image-to-pdf/internal/constants"
	"github.com/kozaktomas/image-to-pdf/internal/crop"
	"github.com/kozaktomas/image-to-pdf/internal/exif"
	"github.com/kozaktomas/image-to-pdf/internal/fingerprint"
	"github.com/kozaktomas/image-to-pdf/internal/layout"
	"github.com/kozaktomas/image-to-pdf/internal/notify"
)

// ErrUnknownCommand is returned by Dispatch for command types it does not handle.
var ErrUnknownCommand = errors.New("unknown command")

// Compressor shrinks an ingested image. It must not fail.
type Compressor interface {
	Compress(data []byte) []byte
}

// Cropper produces a new encoded image from a source and a crop request.
type Cropper interface {
	Crop(src []byte, req crop.Request) ([]byte, error)
}

// Builder assembles a snapshot into a document.
type Builder interface {
	BuildWithNotifier(ctx context.Context, snap collection.Snapshot, page layout.PageSize, n notify.Notifier) (*assembler.Artifact, error)
}

// Document is a built artifact together with the name it is saved under.
type Document struct {
	Name string
	*assembler.Artifact
}

// Image describes one entry for presentation.
type Image struct {
	ID     string `json:"id"`
	Index  int    `json:"index"`
	Bytes  int    `json:"bytes"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Hash   string `json:"hash,omitempty"`
}

// Info is the session state apart from the images.
type Info struct {
	Name   string          `json:"name"`
	Page   layout.PageSize `json:"page"`
	Theme  Theme           `json:"theme"`
	Images int             `json:"images"`
}

// Config holds the collaborators of a workspace.
type Config struct {
	Compressor  Compressor
	Cropper     Cropper
	Builder     Builder
	Page        layout.PageSize
	Name        string
	Preferences Preferences
	Workers     int
}

// Workspace is safe for concurrent use. Commands are applied one at a time.
type Workspace struct {
	mu         sync.Mutex
	images     *collection.Collection
	compressor Compressor
	cropper    Cropper
	builder    Builder
	notices    *notify.Queue
	page       layout.PageSize
	name       string
	prefs      Preferences
	workers    int
	prints     map[string]fingerprint.Fingerprint
}

// New creates a workspace with an empty collection.
func New(cfg Config, opts ...collection.Option) *Workspace {
	if cfg.Page.Validate() != nil {
		cfg.Page = layout.A4
	}
	name, err := NormalizeDocumentName(cfg.Name)
	if err != nil {
		name = DefaultDocumentName
	}
	if cfg.Preferences.Theme == "" {
		cfg.Preferences.Theme = ThemeLight
	}
	if cfg.Workers <= 0 {
		cfg.Workers = constants.DefaultConcurrency
	}
	if cfg.Builder == nil {
		cfg.Builder = assembler.New()
	}

	return &Workspace{
		images:     collection.New(opts...),
		compressor: cfg.Compressor,
		cropper:    cfg.Cropper,
		builder:    cfg.Builder,
		notices:    notify.NewQueue(constants.NoticeQueueSize),
		page:       cfg.Page,
		name:       name,
		prefs:      cfg.Preferences,
		workers:    cfg.Workers,
		prints:     make(map[string]fingerprint.Fingerprint),
	}
}

// Dispatch applies one command.
func (w *Workspace) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case FilesReceived:
		ids, err := w.AddFiles(c.Files)
		return Result{IDs: ids}, err
	case CropConfirmed:
		return Result{}, w.ConfirmCrop(c.EntryID, c.Request)
	case ReplaceConfirmed:
		return Result{}, w.Replace(c.EntryID, c.Data)
	case MoveConfirmed:
		return Result{}, w.Move(c.EntryID, c.TargetIndex)
	case ReorderConfirmed:
		return Result{}, w.Reorder(c.OldIndex, c.NewIndex)
	case RemoveRequested:
		return Result{}, w.Remove(c.EntryID)
	case RenameConfirmed:
		name, err := w.Rename(c.Name)
		return Result{Name: name}, err
	case ThemeToggled:
		return Result{Theme: w.ToggleTheme()}, nil
	case ThemeSelected:
		theme, err := w.SetTheme(c.Theme)
		return Result{Theme: theme}, err
	case BuildRequested:
		page := w.Page()
		if c.Page != nil {
			page = *c.Page
		}
		doc, err := w.Build(ctx, page)
		return Result{Document: doc}, err
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// AddFiles compresses each binary and appends it. Compression runs in
// parallel; entries are appended in the order the files were received.
// An image that matches one already in the collection is reported with an
// info notice but still added.
func (w *Workspace) AddFiles(files [][]byte) ([]string, error) {
	prepared := w.prepareAll(files)

	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]string, 0, len(prepared))
	for i, p := range prepared {
		id, err := w.images.Add(p.data)
		if errors.Is(err, collection.ErrEmptyBinary) {
			slog.Warn("ignoring empty file", "index", i)
			continue
		}
		if err != nil {
			return ids, fmt.Errorf("adding file %d: %w", i, err)
		}
		ids = append(ids, id)

		if !p.hashed {
			continue
		}
		if original, ok := w.findDuplicate(p.print); ok {
			w.notices.Notify(notify.LevelInfo, fmt.Sprintf("Image %d looks like a duplicate of image %d.",
				w.images.Len(), original+1))
		}
		w.prints[id] = p.print
	}
	return ids, nil
}

type preparedFile struct {
	data   []byte
	print  fingerprint.Fingerprint
	hashed bool
}

func (w *Workspace) prepareAll(files [][]byte) []preparedFile {
	out := make([]preparedFile, len(files))
	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, w.workers)
	)
	for i, data := range files {
		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if w.compressor != nil {
				data = w.compressor.Compress(data)
			}
			out[i].data = data
			if len(data) == 0 {
				return
			}
			fp, err := fingerprint.Compute(data)
			if err != nil {
				slog.Debug("skipping fingerprint", "index", i, "error", err)
				return
			}
			out[i].print, out[i].hashed = fp, true
		}(i, data)
	}
	wg.Wait()
	return out
}

// findDuplicate returns the index of the first entry matching fp. Must be
// called with w.mu held.
func (w *Workspace) findDuplicate(fp fingerprint.Fingerprint) (int, bool) {
	for _, e := range w.images.Snapshot().Entries() {
		if existing, ok := w.prints[e.ID]; ok && existing.Duplicate(fp) {
			return e.Index, true
		}
	}
	return 0, false
}

// refreshPrint recomputes the fingerprint of an edited entry. Must be called
// with w.mu held.
func (w *Workspace) refreshPrint(id string, data []byte) {
	fp, err := fingerprint.Compute(data)
	if err != nil {
		delete(w.prints, id)
		return
	}
	w.prints[id] = fp
}

// ConfirmCrop crops the current binary of id and stores the result in place.
// On failure a warning is queued and the entry keeps its previous binary.
func (w *Workspace) ConfirmCrop(id string, req crop.Request) error {
	if w.cropper == nil {
		return fmt.Errorf("%w: no crop engine configured", crop.ErrCropFailure)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	src, _, err := w.images.Get(id)
	if err != nil {
		return err
	}

	out, err := w.cropper.Crop(src, req)
	if err != nil {
		slog.Warn("crop failed", "id", id, "error", err)
		w.notices.Notify(notify.LevelWarning, "Failed to crop the image.")
		return err
	}
	if err := w.images.Update(id, out); err != nil {
		return err
	}
	w.refreshPrint(id, out)
	return nil
}

// Replace stores an externally cropped binary for id.
func (w *Workspace) Replace(id string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.images.Update(id, data); err != nil {
		if errors.Is(err, collection.ErrEmptyBinary) {
			w.notices.Notify(notify.LevelWarning, "Failed to crop the image.")
		}
		return err
	}
	w.refreshPrint(id, data)
	return nil
}

// Move moves id to target.
func (w *Workspace) Move(id string, target int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.images.Move(id, target)
}

// Reorder moves the entry at oldIndex to newIndex.
func (w *Workspace) Reorder(oldIndex, newIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.images.Reorder(oldIndex, newIndex)
}

// Remove deletes id.
func (w *Workspace) Remove(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.images.Remove(id); err != nil {
		return err
	}
	delete(w.prints, id)
	return nil
}

// Rename validates and stores the document name and returns the stored form.
func (w *Workspace) Rename(name string) (string, error) {
	normalized, err := NormalizeDocumentName(name)
	if err != nil {
		w.notices.Notify(notify.LevelWarning, ErrInvalidName.Error()+".")
		return "", err
	}

	w.mu.Lock()
	w.name = normalized
	w.mu.Unlock()
	return normalized, nil
}

// ToggleTheme flips the theme and returns the new one.
func (w *Workspace) ToggleTheme() Theme {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prefs.Theme = w.prefs.Theme.Toggle()
	return w.prefs.Theme
}

// SetTheme sets the theme.
func (w *Workspace) SetTheme(t Theme) (Theme, error) {
	if !t.Valid() {
		return w.Preferences().Theme, fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prefs.Theme = t
	return t, nil
}

// Build assembles the current snapshot. The lock is held only while taking
// the snapshot, so edits made during a build apply to the next one.
func (w *Workspace) Build(ctx context.Context, page layout.PageSize) (*Document, error) {
	w.mu.Lock()
	snap := w.images.Snapshot()
	name := w.name
	w.mu.Unlock()

	artifact, err := w.builder.BuildWithNotifier(ctx, snap, page, w.notices)
	if err != nil {
		slog.Error("failed to generate PDF", "images", snap.Len(), "error", err)
		if errors.Is(err, assembler.ErrEmptyDocument) && snap.Len() == 0 {
			w.notices.Notify(notify.LevelError, "Add at least one image before converting.")
		} else {
			w.notices.Notify(notify.LevelError, "Failed to generate PDF. Please try again.")
		}
		return nil, err
	}

	w.notices.Notify(notify.LevelSuccess, "PDF generated successfully!")
	return &Document{Name: name, Artifact: artifact}, nil
}

// Images lists the entries in order with their displayed dimensions.
func (w *Workspace) Images() []Image {
	w.mu.Lock()
	snap := w.images.Snapshot()
	hashes := make(map[string]string, len(w.prints))
	for id, fp := range w.prints {
		hashes[id] = fp.Hash.String()
	}
	w.mu.Unlock()

	out := make([]Image, 0, snap.Len())
	for _, e := range snap.Entries() {
		img := Image{ID: e.ID, Index: e.Index, Bytes: len(e.Data), Hash: hashes[e.ID]}
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(e.Data)); err == nil {
			img.Width, img.Height = exif.DisplaySize(e.Data, cfg.Width, cfg.Height)
			img.Format = format
		}
		out = append(out, img)
	}
	return out
}

// ImageData returns the current binary of id.
func (w *Workspace) ImageData(id string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, _, err := w.images.Get(id)
	return data, err
}

// Snapshot returns the current order.
func (w *Workspace) Snapshot() collection.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.images.Snapshot()
}

// Info returns the document name, page, theme and image count.
func (w *Workspace) Info() Info {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Info{Name: w.name, Page: w.page, Theme: w.prefs.Theme, Images: w.images.Len()}
}

// Name returns the document name.
func (w *Workspace) Name() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.name
}

// Page returns the default page geometry.
func (w *Workspace) Page() layout.PageSize {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.page
}

// Preferences returns the display preferences.
func (w *Workspace) Preferences() Preferences {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prefs
}

// Notices drains queued notices.
func (w *Workspace) Notices() []notify.Notice {
	return w.notices.Drain()
}

// Close releases every image. The workspace rejects edits afterwards.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.images.Teardown()
	clear(w.prints)
}
