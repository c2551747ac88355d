package collection

// SnapshotEntry is one entry as it was when the snapshot was taken.
type SnapshotEntry struct {
	ID    string
	Index int
	Data  []byte
}

// Snapshot is a point-in-time ordered view of a collection.
// Later mutations of the collection do not affect it.
type Snapshot struct {
	items []SnapshotEntry
}

// NewSnapshot builds a snapshot from raw binaries, in order, with positional IDs.
// It is meant for one-shot pipelines that never hold a Collection.
func NewSnapshot(entries ...SnapshotEntry) Snapshot {
	items := make([]SnapshotEntry, len(entries))
	copy(items, entries)
	for i := range items {
		items[i].Index = i
	}
	return Snapshot{items: items}
}

// Len returns the number of entries.
func (s Snapshot) Len() int {
	return len(s.items)
}

// At returns the entry at position i.
func (s Snapshot) At(i int) SnapshotEntry {
	return s.items[i]
}

// Entries returns a copy of the entries in order.
func (s Snapshot) Entries() []SnapshotEntry {
	out := make([]SnapshotEntry, len(s.items))
	copy(out, s.items)
	return out
}

// IDs returns the entry IDs in order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return ids
}
