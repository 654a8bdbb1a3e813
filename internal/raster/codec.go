package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF format decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// imaging registers the PNG and JPEG decoders; the blank imports above add
// GIF and WebP so the container sniffing below covers all accepted inputs.

// Format identifies the container format of a decoded image.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatUnknown Format = "unknown"
)

// ErrMetadata is returned when a buffer decodes but reports no usable
// dimensions (corrupt or unsupported input).
var ErrMetadata = errors.New("raster: image metadata unavailable")

// Decode parses an encoded image buffer into an RGB pixel buffer and
// reports the container format it arrived in, so callers can mirror it on
// output.
func Decode(data []byte) (*Image, Format, error) {
	src, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("raster: decode: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, FormatUnknown, fmt.Errorf("%w: decoded size %dx%d", ErrMetadata, bounds.Dx(), bounds.Dy())
	}

	format := FormatUnknown
	switch name {
	case "jpeg":
		format = FormatJPEG
	case "png":
		format = FormatPNG
	case "gif":
		format = FormatGIF
	case "webp":
		format = FormatWebP
	}
	return FromImage(src), format, nil
}

// Encode serializes the buffer in the given container format.
//
// WebP has no pure-Go encoder, so WebP (and unknown) inputs round-trip as
// PNG, which is lossless and universally decodable. GIF is quantized by the
// stdlib encoder via imaging.
func Encode(img *Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img.ToRGBA(), imaging.JPEG, imaging.JPEGQuality(92))
	case FormatGIF:
		err = imaging.Encode(&buf, img.ToRGBA(), imaging.GIF)
	default: // PNG, WebP, unknown
		err = imaging.Encode(&buf, img.ToRGBA(), imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("raster: encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// EncodeFormat returns the container format Encode will actually produce
// for the given input format.
func EncodeFormat(format Format) Format {
	switch format {
	case FormatJPEG, FormatGIF, FormatPNG:
		return format
	default:
		return FormatPNG
	}
}
