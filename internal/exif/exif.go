// Package exif reads the orientation tag of JPEG images.
package exif

import (
	"bytes"
	"encoding/binary"
)

// Normal is the orientation of an image that needs no transform.
const Normal = 1

const orientationTag = 0x0112

var exifHeader = []byte("Exif\x00\x00")

// Orientation returns the EXIF orientation (1-8) of a JPEG, or Normal when
// data is not a JPEG or carries no valid tag.
func Orientation(data []byte) int {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return Normal
	}

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return Normal
		}
		marker := data[pos+1]
		switch {
		case marker == 0xFF:
			// Fill byte.
			pos++
			continue
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			pos += 2
			continue
		case marker == 0xDA || marker == 0xD9:
			// Metadata segments all precede the scan.
			return Normal
		}

		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		end := pos + 2 + length
		if length < 2 || end > len(data) {
			return Normal
		}
		if marker == 0xE1 {
			if o, ok := parseSegment(data[pos+4 : end]); ok {
				return o
			}
		}
		pos = end
	}
	return Normal
}

// parseSegment reads the orientation from an APP1 payload.
func parseSegment(seg []byte) (int, bool) {
	if !bytes.HasPrefix(seg, exifHeader) {
		return 0, false
	}
	tiff := seg[len(exifHeader):]
	if len(tiff) < 8 {
		return 0, false
	}

	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, false
	}
	if order.Uint16(tiff[2:]) != 42 {
		return 0, false
	}

	ifd := int(order.Uint32(tiff[4:]))
	if ifd < 8 || ifd+2 > len(tiff) {
		return 0, false
	}
	count := int(order.Uint16(tiff[ifd:]))
	for i := range count {
		entry := ifd + 2 + i*12
		if entry+12 > len(tiff) {
			break
		}
		if order.Uint16(tiff[entry:]) != orientationTag {
			continue
		}
		// SHORT, one value, stored in the first two bytes of the value field.
		if order.Uint16(tiff[entry+2:]) != 3 || order.Uint32(tiff[entry+4:]) != 1 {
			return 0, false
		}
		o := int(order.Uint16(tiff[entry+8:]))
		if o < 1 || o > 8 {
			return 0, false
		}
		return o, true
	}
	return 0, false
}

// SwapsAxes reports whether displaying an image with orientation o swaps its
// width and height.
func SwapsAxes(o int) bool {
	return o >= 5 && o <= 8
}

// DisplaySize returns the width and height of an image as it is displayed.
func DisplaySize(data []byte, width, height int) (int, int) {
	if SwapsAxes(Orientation(data)) {
		return height, width
	}
	return width, height
}

// WithOrientation returns a copy of a JPEG with an APP1 segment holding only
// an orientation tag inserted after the SOI marker.
func WithOrientation(data []byte, o int) []byte {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return data
	}

	var tiff bytes.Buffer
	tiff.WriteString("MM")
	be := binary.BigEndian
	tiff.Write(be.AppendUint16(nil, 42))
	tiff.Write(be.AppendUint32(nil, 8))
	tiff.Write(be.AppendUint16(nil, 1))
	tiff.Write(be.AppendUint16(nil, orientationTag))
	tiff.Write(be.AppendUint16(nil, 3))
	tiff.Write(be.AppendUint32(nil, 1))
	tiff.Write(be.AppendUint16(nil, uint16(o)))
	tiff.Write([]byte{0, 0})
	tiff.Write(be.AppendUint32(nil, 0))

	payload := append(append([]byte{}, exifHeader...), tiff.Bytes()...)

	out := make([]byte, 0, len(data)+len(payload)+4)
	out = append(out, 0xFF, 0xD8, 0xFF, 0xE1)
	out = be.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, data[2:]...)
}
