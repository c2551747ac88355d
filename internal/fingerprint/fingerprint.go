// Package fingerprint computes difference hashes used to spot images that
// were added more than once.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	"math/bits"
	"strconv"

	"github.com/disintegration/imaging"
)

// DuplicateThreshold is the largest Hamming distance at which two images of
// the same size are reported as duplicates. Re-encoding shifts a few bits.
const DuplicateThreshold = 4

// Hash is a 64-bit difference hash.
type Hash uint64

// Fingerprint identifies an image by its hash and pixel size.
type Fingerprint struct {
	Hash   Hash
	Width  int
	Height int
}

// Compute decodes an image and fingerprints it.
func Compute(data []byte) (Fingerprint, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	return Fingerprint{Hash: DHash(img), Width: b.Dx(), Height: b.Dy()}, nil
}

// DHash compares horizontally adjacent pixels of a 9x8 grayscale thumbnail,
// one bit per comparison.
func DHash(img image.Image) Hash {
	small := imaging.Grayscale(imaging.Resize(img, 9, 8, imaging.Box))

	var h Hash
	bit := 63
	for y := range 8 {
		for x := range 8 {
			// Grayscale output has R == G == B.
			if small.Pix[small.PixOffset(x, y)] > small.Pix[small.PixOffset(x+1, y)] {
				h |= 1 << bit
			}
			bit--
		}
	}
	return h
}

// Distance returns the number of differing bits.
func (h Hash) Distance(other Hash) int {
	return bits.OnesCount64(uint64(h ^ other))
}

func (h Hash) String() string {
	s := strconv.FormatUint(uint64(h), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

// Duplicate reports whether two fingerprints describe the same picture.
func (f Fingerprint) Duplicate(other Fingerprint) bool {
	return f.Width == other.Width && f.Height == other.Height &&
		f.Hash.Distance(other.Hash) <= DuplicateThreshold
}
