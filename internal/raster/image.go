// Package raster owns the pixel buffer representation used by the
// inpainting pipeline and the decode/encode boundary around it.
//
// All internal math runs on interleaved 8-bit RGB. Images are normalized to
// three channels on decode; an alpha channel, if present in the input, is
// not processed by the core.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/pixelmend/inpaint/internal/geometry"
)

// Channels is the fixed channel count of every Image in this package.
const Channels = 3

// ErrOutOfBounds is returned by Extract when the requested rectangle does
// not fit inside the image. Reaching it from inside the engine means an
// expanded window was not re-clamped: a contract violation, not bad input.
var ErrOutOfBounds = errors.New("raster: extract area outside image bounds")

// Image is an owned, interleaved 8-bit RGB pixel buffer.
type Image struct {
	Pix    []uint8 // len = Width*Height*Channels, row-major
	Width  int
	Height int
}

// New returns a zero-filled image of the given size.
func New(width, height int) *Image {
	return &Image{
		Pix:    make([]uint8, width*height*Channels),
		Width:  width,
		Height: height,
	}
}

// NewFilled returns an image of the given size with every pixel set to the
// given RGB value.
func NewFilled(width, height int, r, g, b uint8) *Image {
	img := New(width, height)
	for i := 0; i < len(img.Pix); i += Channels {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
	}
	return img
}

// FromImage converts any image.Image into an RGB buffer, dropping alpha.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := New(w, h)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			out.Pix[i] = uint8(r >> 8)
			out.Pix[i+1] = uint8(g >> 8)
			out.Pix[i+2] = uint8(b >> 8)
			i += Channels
		}
	}
	return out
}

// Size returns the image extent.
func (p *Image) Size() geometry.Size {
	return geometry.Size{Width: p.Width, Height: p.Height}
}

// Offset returns the index of pixel (x, y) in Pix.
func (p *Image) Offset(x, y int) int {
	return (y*p.Width + x) * Channels
}

// Clone returns a deep copy.
func (p *Image) Clone() *Image {
	out := &Image{Pix: make([]uint8, len(p.Pix)), Width: p.Width, Height: p.Height}
	copy(out.Pix, p.Pix)
	return out
}

// Extract copies the pixels of r into a new region-sized image.
//
// The rectangle must already be clamped; Extract refuses out-of-bounds
// requests with ErrOutOfBounds instead of clamping silently, so that a
// missing clamp upstream surfaces as a detectable contract violation.
func (p *Image) Extract(r geometry.Region) (*Image, error) {
	if !r.Valid(p.Size()) {
		return nil, fmt.Errorf("%w: region %+v, image %dx%d", ErrOutOfBounds, r, p.Width, p.Height)
	}
	out := New(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		src := p.Offset(r.X, r.Y+y)
		dst := out.Offset(0, y)
		copy(out.Pix[dst:dst+r.Width*Channels], p.Pix[src:src+r.Width*Channels])
	}
	return out, nil
}

// Insert copies sub into p with its top-left corner at (x, y). Parts of sub
// falling outside p are skipped.
func (p *Image) Insert(sub *Image, x, y int) {
	for sy := 0; sy < sub.Height; sy++ {
		dy := y + sy
		if dy < 0 || dy >= p.Height {
			continue
		}
		for sx := 0; sx < sub.Width; sx++ {
			dx := x + sx
			if dx < 0 || dx >= p.Width {
				continue
			}
			di := p.Offset(dx, dy)
			si := sub.Offset(sx, sy)
			p.Pix[di] = sub.Pix[si]
			p.Pix[di+1] = sub.Pix[si+1]
			p.Pix[di+2] = sub.Pix[si+2]
		}
	}
}

// At returns the clamped pixel at (x, y). Coordinates outside the image are
// clamped to the nearest edge pixel, matching the border handling of the
// convolution stages.
func (p *Image) At(x, y int) (r, g, b uint8) {
	x = geometry.Clamp(x, 0, p.Width-1)
	y = geometry.Clamp(y, 0, p.Height-1)
	i := p.Offset(x, y)
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
}

// LumaAt returns the BT.601 luminance of the clamped pixel at (x, y).
func (p *Image) LumaAt(x, y int) float64 {
	r, g, b := p.At(x, y)
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// Luma returns the full-image BT.601 luminance plane.
func (p *Image) Luma() []float64 {
	out := make([]float64, p.Width*p.Height)
	i := 0
	for j := 0; j < len(out); j++ {
		out[j] = 0.299*float64(p.Pix[i]) + 0.587*float64(p.Pix[i+1]) + 0.114*float64(p.Pix[i+2])
		i += Channels
	}
	return out
}

// ToRGBA converts the buffer back into a stdlib image for encoding.
func (p *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	i := 0
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			out.SetRGBA(x, y, color.RGBA{p.Pix[i], p.Pix[i+1], p.Pix[i+2], 255})
			i += Channels
		}
	}
	return out
}

// ClampByte converts a float sample to a byte, saturating at both ends.
func ClampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
