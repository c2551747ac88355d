package workspace

import (
	"github.com/kozaktomas/image-to-pdf/internal/crop"
	"github.com/kozaktomas/image-to-pdf/internal/layout"
)

// Command is an inbound user action. Every ingestion, gesture and dialog of
// the front-end maps to exactly one command type.
type Command interface {
	commandName() string
}

// FilesReceived carries raw binaries from upload, drop or paste.
type FilesReceived struct {
	Files [][]byte
}

// CropConfirmed asks the workspace to crop an entry with its own crop engine.
type CropConfirmed struct {
	EntryID string
	Request crop.Request
}

// ReplaceConfirmed carries an already cropped binary for an entry.
type ReplaceConfirmed struct {
	EntryID string
	Data    []byte
}

// MoveConfirmed moves an entry, addressed by ID, to a target position.
type MoveConfirmed struct {
	EntryID     string
	TargetIndex int
}

// ReorderConfirmed moves the entry at OldIndex to NewIndex.
type ReorderConfirmed struct {
	OldIndex int
	NewIndex int
}

// RemoveRequested removes an entry.
type RemoveRequested struct {
	EntryID string
}

// RenameConfirmed renames the output document.
type RenameConfirmed struct {
	Name string
}

// ThemeToggled flips between light and dark.
type ThemeToggled struct{}

// ThemeSelected sets an explicit theme.
type ThemeSelected struct {
	Theme Theme
}

// BuildRequested assembles the document. A nil Page uses the workspace default.
type BuildRequested struct {
	Page *layout.PageSize
}

func (FilesReceived) commandName() string    { return "files_received" }
func (CropConfirmed) commandName() string    { return "crop_confirmed" }
func (ReplaceConfirmed) commandName() string { return "replace_confirmed" }
func (MoveConfirmed) commandName() string    { return "move_confirmed" }
func (ReorderConfirmed) commandName() string { return "reorder_confirmed" }
func (RemoveRequested) commandName() string  { return "remove_requested" }
func (RenameConfirmed) commandName() string  { return "rename_confirmed" }
func (ThemeToggled) commandName() string     { return "theme_toggled" }
func (ThemeSelected) commandName() string    { return "theme_selected" }
func (BuildRequested) commandName() string   { return "build_requested" }

// Result is the outcome of a dispatched command. Only the fields relevant to
// the command are set.
type Result struct {
	IDs      []string
	Name     string
	Theme    Theme
	Document *Document
}
