package collection

import (
	"errors"
	"testing"
)

func TestBlob_ReleaseOnce(t *testing.T) {
	calls := 0
	b := newBlob([]byte("data"), func(*Blob) { calls++ })

	if b.Size() != 4 {
		t.Errorf("expected size 4, got %d", b.Size())
	}
	if err := b.Release(); err != nil {
		t.Fatalf("first release failed: %v", err)
	}
	if err := b.Release(); !errors.Is(err, ErrAlreadyReleased) {
		t.Errorf("expected ErrAlreadyReleased, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected hook called once, got %d", calls)
	}
	if b.Bytes() != nil {
		t.Error("expected nil bytes after release")
	}
	if !b.Released() {
		t.Error("expected Released() to be true")
	}
}

func TestBlob_SeqIsUnique(t *testing.T) {
	a := newBlob([]byte("a"), nil)
	b := newBlob([]byte("b"), nil)
	if a.Seq() == b.Seq() {
		t.Errorf("expected distinct sequence numbers, got %d twice", a.Seq())
	}
}
