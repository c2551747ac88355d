// Package collection keeps the ordered, identity-stable set of images that
// make up one document. Positions are derived from the slice index at read
// time; entries are addressed only by their opaque ID.
package collection

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Collection errors.
var (
	ErrNotFound    = errors.New("entry not found")
	ErrOutOfRange  = errors.New("index out of range")
	ErrTornDown    = errors.New("collection torn down")
	ErrEmptyBinary = errors.New("empty image binary")
	ErrIDCollision = errors.New("id generator returned an issued id")
)

// maxIDAttempts bounds the retries when a generated ID was already issued.
const maxIDAttempts = 8

// Entry is one image in the working set.
type Entry struct {
	ID   string
	Blob *Blob
}

// Collection is the ordered set of entries.
// All methods are safe for concurrent use; callers are expected to have a
// single logical mutator.
type Collection struct {
	mu       sync.RWMutex
	entries  []*Entry
	torndown bool
	onFree   ReleaseHook
	newID    func() string
	issued   map[string]struct{}
}

// Option configures a Collection.
type Option func(*Collection)

// WithReleaseHook registers an observer called whenever a blob is released.
func WithReleaseHook(hook ReleaseHook) Option {
	return func(c *Collection) {
		c.onFree = hook
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(c *Collection) {
		c.newID = gen
	}
}

// New creates an empty collection.
func New(opts ...Option) *Collection {
	c := &Collection{
		newID:  uuid.NewString,
		issued: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends a new entry and returns its freshly minted ID.
func (c *Collection) Add(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyBinary
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torndown {
		return "", ErrTornDown
	}

	id, err := c.mintID()
	if err != nil {
		return "", err
	}
	c.entries = append(c.entries, &Entry{ID: id, Blob: newBlob(data, c.onFree)})
	return id, nil
}

// mintID returns an ID never issued by this collection, including IDs of
// removed entries. Must be called with c.mu held.
func (c *Collection) mintID() (string, error) {
	for range maxIDAttempts {
		id := c.newID()
		if _, seen := c.issued[id]; seen {
			continue
		}
		c.issued[id] = struct{}{}
		return id, nil
	}
	return "", ErrIDCollision
}

// Remove deletes the entry with the given ID and releases its blob.
func (c *Collection) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torndown {
		return ErrTornDown
	}

	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}

	entry := c.entries[idx]
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	c.release(entry.Blob)
	return nil
}

// Update replaces the binary of an existing entry in place and releases the previous one.
func (c *Collection) Update(id string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyBinary
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torndown {
		return ErrTornDown
	}

	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	entry := c.entries[idx]
	prev := entry.Blob
	entry.Blob = newBlob(data, c.onFree)
	c.release(prev)
	return nil
}

// Move relocates the entry with the given ID to target, shifting the others.
func (c *Collection) Move(id string, target int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torndown {
		return ErrTornDown
	}

	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	if target < 0 || target >= len(c.entries) {
		return fmt.Errorf("move %s to %d (len %d): %w", id, target, len(c.entries), ErrOutOfRange)
	}

	c.move(idx, target)
	return nil
}

// Reorder moves the entry at oldIndex to newIndex.
func (c *Collection) Reorder(oldIndex, newIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torndown {
		return ErrTornDown
	}

	n := len(c.entries)
	if oldIndex < 0 || oldIndex >= n || newIndex < 0 || newIndex >= n {
		return fmt.Errorf("reorder %d -> %d (len %d): %w", oldIndex, newIndex, n, ErrOutOfRange)
	}

	c.move(oldIndex, newIndex)
	return nil
}

// move shifts entries[from] to position to. Caller holds the lock.
func (c *Collection) move(from, to int) {
	if from == to {
		return
	}
	entry := c.entries[from]
	if from < to {
		copy(c.entries[from:to], c.entries[from+1:to+1])
	} else {
		copy(c.entries[to+1:from+1], c.entries[to:from])
	}
	c.entries[to] = entry
}

// Get returns the current binary of an entry and its position.
func (c *Collection) Get(id string) ([]byte, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return nil, -1, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return c.entries[idx].Blob.Bytes(), idx, nil
}

// IndexOf returns the current position of id, or -1.
func (c *Collection) IndexOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(id)
}

// Len returns the number of live entries.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns the current order as an immutable view.
func (c *Collection) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]SnapshotEntry, len(c.entries))
	for i, e := range c.entries {
		items[i] = SnapshotEntry{
			ID:    e.ID,
			Index: i,
			Data:  e.Blob.Bytes(),
		}
	}
	return Snapshot{items: items}
}

// Teardown releases every live blob. The collection is unusable afterwards.
func (c *Collection) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torndown {
		return
	}
	for _, e := range c.entries {
		c.release(e.Blob)
	}
	c.entries = nil
	c.torndown = true
}

// TornDown reports whether Teardown was called.
func (c *Collection) TornDown() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.torndown
}

func (c *Collection) indexOf(id string) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) release(b *Blob) {
	if err := b.Release(); err != nil {
		// Only reachable if a blob ever ends up shared between entries.
		slog.Error("blob release failed", "seq", b.Seq(), "error", err)
	}
}
