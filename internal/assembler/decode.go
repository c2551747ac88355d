package assembler

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/image-to-pdf/internal/exif"
)

// transcodeQuality is used when a format has to be re-encoded for embedding.
const transcodeQuality = 92

// preparedImage is an entry ready to be embedded.
type preparedImage struct {
	data    []byte
	pdfType string
	width   int
	height  int
}

// prepare decodes the pixel dimensions of data and returns it in a form gofpdf
// can embed. JPEG, PNG and GIF are embedded as-is when gofpdf can read them;
// rotated JPEGs are re-encoded upright, PNGs gofpdf rejects are re-encoded as
// 8-bit PNG and other formats are transcoded to JPEG.
func prepare(data []byte) (*preparedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty binary", ErrDecodeFailure)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	switch format {
	case "jpeg":
		if exif.Orientation(data) != exif.Normal {
			return transcode(data, format, imaging.JPEG)
		}
		return &preparedImage{data: data, pdfType: "JPG", width: cfg.Width, height: cfg.Height}, nil
	case "png":
		if !pngEmbeddable(data) {
			return transcode(data, format, imaging.PNG)
		}
		return &preparedImage{data: data, pdfType: "PNG", width: cfg.Width, height: cfg.Height}, nil
	case "gif":
		return &preparedImage{data: data, pdfType: "GIF", width: cfg.Width, height: cfg.Height}, nil
	default:
		return transcode(data, format, imaging.JPEG)
	}
}

// pngEmbeddable reports whether gofpdf can parse a PNG directly. It only
// reads non-interlaced images with at most 8 bits per channel.
func pngEmbeddable(data []byte) bool {
	// Signature (8), chunk length (4), "IHDR" (4), width (4), height (4),
	// then bit depth, color type, compression, filter and interlace.
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return false
	}
	return data[24] <= 8 && data[28] == 0
}

// transcode re-encodes data upright in the target format.
func transcode(data []byte, format string, target imaging.Format) (*preparedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, format, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target, imaging.JPEGQuality(transcodeQuality)); err != nil {
		return nil, fmt.Errorf("%w: transcoding %s: %w", ErrDecodeFailure, format, err)
	}

	pdfType := "JPG"
	if target == imaging.PNG {
		pdfType = "PNG"
	}
	b := img.Bounds()
	return &preparedImage{data: buf.Bytes(), pdfType: pdfType, width: b.Dx(), height: b.Dy()}, nil
}
