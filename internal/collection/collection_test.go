package collection

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// releaseCounter counts releases per blob sequence number.
type releaseCounter struct {
	counts map[uint64]int
}

func newReleaseCounter() *releaseCounter {
	return &releaseCounter{counts: make(map[uint64]int)}
}

func (r *releaseCounter) hook(b *Blob) {
	r.counts[b.Seq()]++
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func mustAdd(t *testing.T, c *Collection, data string) string {
	t.Helper()
	id, err := c.Add([]byte(data))
	if err != nil {
		t.Fatalf("Add(%q) failed: %v", data, err)
	}
	return id
}

func TestAdd_AppendsWithUniqueIDs(t *testing.T) {
	c := New()

	seen := make(map[string]bool)
	for i := range 50 {
		id := mustAdd(t, c, fmt.Sprintf("img-%d", i))
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}

	if c.Len() != 50 {
		t.Errorf("expected 50 entries, got %d", c.Len())
	}

	snap := c.Snapshot()
	for i := range snap.Len() {
		if string(snap.At(i).Data) != fmt.Sprintf("img-%d", i) {
			t.Errorf("entry %d has data %q", i, snap.At(i).Data)
		}
		if snap.At(i).Index != i {
			t.Errorf("entry %d has index %d", i, snap.At(i).Index)
		}
	}
}

func TestAdd_EmptyBinary(t *testing.T) {
	c := New()
	if _, err := c.Add(nil); !errors.Is(err, ErrEmptyBinary) {
		t.Errorf("expected ErrEmptyBinary, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty collection, got %d", c.Len())
	}
}

func TestIDsNeverReused(t *testing.T) {
	c := New()
	a := mustAdd(t, c, "a")
	if err := c.Remove(a); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	b := mustAdd(t, c, "b")
	if a == b {
		t.Errorf("id %s reused after removal", a)
	}
}

func TestRemove(t *testing.T) {
	rc := newReleaseCounter()
	c := New(WithReleaseHook(rc.hook), WithIDGenerator(sequentialIDs()))
	a := mustAdd(t, c, "a")
	b := mustAdd(t, c, "b")
	cc := mustAdd(t, c, "c")

	if err := c.Remove(b); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if got := c.Snapshot().IDs(); !reflect.DeepEqual(got, []string{a, cc}) {
		t.Errorf("expected [%s %s], got %v", a, cc, got)
	}
	if len(rc.counts) != 1 {
		t.Errorf("expected exactly one blob released, got %d", len(rc.counts))
	}
	for seq, n := range rc.counts {
		if n != 1 {
			t.Errorf("blob %d released %d times", seq, n)
		}
	}
}

func TestRemove_NotFound(t *testing.T) {
	c := New()
	mustAdd(t, c, "a")

	err := c.Remove("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected collection unchanged, got len %d", c.Len())
	}
}

func TestUpdate_KeepsIdentityAndPosition(t *testing.T) {
	rc := newReleaseCounter()
	c := New(WithReleaseHook(rc.hook))
	a := mustAdd(t, c, "a")
	b := mustAdd(t, c, "b")
	mustAdd(t, c, "c")

	_, _, err := c.Get(b)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	before := c.Snapshot().IDs()

	if err := c.Update(b, []byte("b-cropped")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	after := c.Snapshot().IDs()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("update changed order: %v -> %v", before, after)
	}

	data, idx, err := c.Get(b)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if idx != 1 {
		t.Errorf("expected index 1, got %d", idx)
	}
	if string(data) != "b-cropped" {
		t.Errorf("expected updated data, got %q", data)
	}

	if len(rc.counts) != 1 {
		t.Fatalf("expected one released blob, got %d", len(rc.counts))
	}
	for _, n := range rc.counts {
		if n != 1 {
			t.Errorf("previous blob released %d times", n)
		}
	}

	// The untouched neighbour still has its own binary.
	data, _, _ = c.Get(a)
	if string(data) != "a" {
		t.Errorf("neighbour data changed: %q", data)
	}
}

func TestUpdate_NotFoundLeavesSnapshotUnchanged(t *testing.T) {
	c := New()
	mustAdd(t, c, "a")
	mustAdd(t, c, "b")
	before := c.Snapshot()

	err := c.Update("missing", []byte("x"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	after := c.Snapshot()
	if !reflect.DeepEqual(before.Entries(), after.Entries()) {
		t.Errorf("snapshot changed after failed update")
	}
}

func TestUpdate_EmptyBinaryRejected(t *testing.T) {
	c := New()
	a := mustAdd(t, c, "a")

	if err := c.Update(a, []byte{}); !errors.Is(err, ErrEmptyBinary) {
		t.Errorf("expected ErrEmptyBinary, got %v", err)
	}
	data, _, _ := c.Get(a)
	if string(data) != "a" {
		t.Errorf("expected original data, got %q", data)
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		target   int
		expected []string
	}{
		{"first to last", "id-1", 3, []string{"id-2", "id-3", "id-4", "id-1"}},
		{"last to first", "id-4", 0, []string{"id-4", "id-1", "id-2", "id-3"}},
		{"middle forward", "id-2", 2, []string{"id-1", "id-3", "id-2", "id-4"}},
		{"middle backward", "id-3", 1, []string{"id-1", "id-3", "id-2", "id-4"}},
		{"same position", "id-2", 1, []string{"id-1", "id-2", "id-3", "id-4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithIDGenerator(sequentialIDs()))
			for _, d := range []string{"a", "b", "c", "d"} {
				mustAdd(t, c, d)
			}
			if err := c.Move(tt.id, tt.target); err != nil {
				t.Fatalf("Move failed: %v", err)
			}
			if got := c.Snapshot().IDs(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestMove_Errors(t *testing.T) {
	c := New()
	a := mustAdd(t, c, "a")
	mustAdd(t, c, "b")

	if err := c.Move("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := c.Move(a, 2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := c.Move(a, -1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestMove_IsInvertible(t *testing.T) {
	c := New()
	for i := range 6 {
		mustAdd(t, c, fmt.Sprintf("%d", i))
	}
	original := c.Snapshot().IDs()

	for _, id := range original {
		for target := range len(original) {
			start := c.IndexOf(id)
			if err := c.Move(id, target); err != nil {
				t.Fatalf("Move(%s, %d) failed: %v", id, target, err)
			}
			if err := c.Move(id, start); err != nil {
				t.Fatalf("Move back failed: %v", err)
			}
			if got := c.Snapshot().IDs(); !reflect.DeepEqual(got, original) {
				t.Fatalf("move %s -> %d -> %d did not restore order: %v", id, target, start, got)
			}
		}
	}
}

func TestReorder(t *testing.T) {
	c := New(WithIDGenerator(sequentialIDs()))
	for _, d := range []string{"a", "b", "c"} {
		mustAdd(t, c, d)
	}

	if err := c.Reorder(0, 2); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if got := c.Snapshot().IDs(); !reflect.DeepEqual(got, []string{"id-2", "id-3", "id-1"}) {
		t.Errorf("unexpected order %v", got)
	}

	if err := c.Reorder(0, 3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := c.Reorder(-1, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestSwapThenRemoveFirst(t *testing.T) {
	c := New()
	first := mustAdd(t, c, "first")
	second := mustAdd(t, c, "second")

	if err := c.Move(second, 0); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	head := c.Snapshot().At(0).ID
	if err := c.Remove(head); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	snap := c.Snapshot()
	if snap.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", snap.Len())
	}
	if snap.At(0).ID != first || snap.At(0).Index != 0 {
		t.Errorf("expected %s at index 0, got %s at %d", first, snap.At(0).ID, snap.At(0).Index)
	}
	if string(snap.At(0).Data) != "first" {
		t.Errorf("unexpected data %q", snap.At(0).Data)
	}
}

func TestSnapshot_IsolatedFromLaterMutations(t *testing.T) {
	c := New()
	a := mustAdd(t, c, "a")
	b := mustAdd(t, c, "b")

	snap := c.Snapshot()

	if err := c.Update(a, []byte("a2")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := c.Remove(b); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if snap.Len() != 2 {
		t.Fatalf("snapshot length changed to %d", snap.Len())
	}
	if string(snap.At(0).Data) != "a" || string(snap.At(1).Data) != "b" {
		t.Errorf("snapshot data changed: %q %q", snap.At(0).Data, snap.At(1).Data)
	}
}

func TestTeardown(t *testing.T) {
	rc := newReleaseCounter()
	c := New(WithReleaseHook(rc.hook))
	a := mustAdd(t, c, "a")
	mustAdd(t, c, "b")
	if err := c.Update(a, []byte("a2")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	c.Teardown()
	c.Teardown()

	// a's original, a2, b
	if len(rc.counts) != 3 {
		t.Errorf("expected 3 released blobs, got %d", len(rc.counts))
	}
	for seq, n := range rc.counts {
		if n != 1 {
			t.Errorf("blob %d released %d times", seq, n)
		}
	}

	if !c.TornDown() {
		t.Error("expected collection to be torn down")
	}
	if _, err := c.Add([]byte("x")); !errors.Is(err, ErrTornDown) {
		t.Errorf("expected ErrTornDown from Add, got %v", err)
	}
	if err := c.Remove(a); !errors.Is(err, ErrTornDown) {
		t.Errorf("expected ErrTornDown from Remove, got %v", err)
	}
	if err := c.Update(a, []byte("x")); !errors.Is(err, ErrTornDown) {
		t.Errorf("expected ErrTornDown from Update, got %v", err)
	}
	if err := c.Move(a, 0); !errors.Is(err, ErrTornDown) {
		t.Errorf("expected ErrTornDown from Move, got %v", err)
	}
}

func TestRandomOperations_KeepIDsUniqueAndStable(t *testing.T) {
	c := New()
	data := make(map[string]string)

	// Deterministic pseudo-random walk over add/remove/move/update.
	seed := uint32(7)
	next := func(n int) int {
		seed = seed*1664525 + 1013904223
		return int(seed>>8) % n
	}

	for step := range 500 {
		ids := c.Snapshot().IDs()
		switch op := next(4); {
		case op == 0 || len(ids) == 0:
			payload := fmt.Sprintf("p-%d", step)
			id := mustAdd(t, c, payload)
			if _, exists := data[id]; exists {
				t.Fatalf("id %s minted twice", id)
			}
			data[id] = payload
		case op == 1:
			id := ids[next(len(ids))]
			if err := c.Remove(id); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			delete(data, id)
		case op == 2:
			id := ids[next(len(ids))]
			if err := c.Move(id, next(len(ids))); err != nil {
				t.Fatalf("Move failed: %v", err)
			}
		default:
			id := ids[next(len(ids))]
			payload := fmt.Sprintf("u-%d", step)
			if err := c.Update(id, []byte(payload)); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			data[id] = payload
		}

		snap := c.Snapshot()
		if snap.Len() != len(data) {
			t.Fatalf("step %d: expected %d entries, got %d", step, len(data), snap.Len())
		}
		seen := make(map[string]bool)
		for _, e := range snap.Entries() {
			if seen[e.ID] {
				t.Fatalf("step %d: duplicate id %s", step, e.ID)
			}
			seen[e.ID] = true
			if data[e.ID] != string(e.Data) {
				t.Fatalf("step %d: entry %s has %q, want %q", step, e.ID, e.Data, data[e.ID])
			}
		}
	}
}

func TestAdd_RejectsReissuedIDs(t *testing.T) {
	c := New(WithIDGenerator(func() string { return "same" }))

	first := mustAdd(t, c, "a")
	if _, err := c.Add([]byte("b")); !errors.Is(err, ErrIDCollision) {
		t.Errorf("expected ErrIDCollision, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected the collection unchanged, got %d entries", c.Len())
	}

	// A removed entry's ID is never handed out again.
	if err := c.Remove(first); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := c.Add([]byte("c")); !errors.Is(err, ErrIDCollision) {
		t.Errorf("expected ErrIDCollision after removal, got %v", err)
	}
}

func TestAdd_RetriesCollidingGenerator(t *testing.T) {
	ids := []string{"x", "x", "x", "y"}
	n := 0
	c := New(WithIDGenerator(func() string {
		id := ids[n]
		n++
		return id
	}))

	if got := mustAdd(t, c, "a"); got != "x" {
		t.Errorf("expected x, got %s", got)
	}
	if got := mustAdd(t, c, "b"); got != "y" {
		t.Errorf("expected y after retries, got %s", got)
	}
}
