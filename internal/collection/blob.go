package collection

import (
	"errors"
	"sync/atomic"
)

// ErrAlreadyReleased is returned when a blob is released twice.
var ErrAlreadyReleased = errors.New("blob already released")

// ReleaseHook observes blob releases. It is called once per successful release.
type ReleaseHook func(b *Blob)

// Blob is an encoded image owned by exactly one entry.
// The owning collection releases it when the entry is removed, updated or torn down.
type Blob struct {
	seq      uint64
	data     []byte
	released atomic.Bool
	onFree   ReleaseHook
}

var blobSeq atomic.Uint64

func newBlob(data []byte, hook ReleaseHook) *Blob {
	return &Blob{
		seq:    blobSeq.Add(1),
		data:   data,
		onFree: hook,
	}
}

// Seq returns a process-wide sequence number identifying this blob.
func (b *Blob) Seq() uint64 {
	return b.seq
}

// Bytes returns the encoded image, or nil once the blob is released.
func (b *Blob) Bytes() []byte {
	if b.released.Load() {
		return nil
	}
	return b.data
}

// Size returns the encoded size in bytes.
func (b *Blob) Size() int {
	return len(b.Bytes())
}

// Released reports whether the blob was released.
func (b *Blob) Released() bool {
	return b.released.Load()
}

// Release drops the encoded bytes. Releasing twice returns ErrAlreadyReleased.
func (b *Blob) Release() error {
	if !b.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	b.data = nil
	if b.onFree != nil {
		b.onFree(b)
	}
	return nil
}
