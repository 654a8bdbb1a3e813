// Package feather builds the spatial blend masks that fade reconstructed
// content into the untouched image.
//
// Masks are full-image-sized, one byte per pixel: 255 means the composite
// takes the reconstructed content, 0 the original image, and intermediate
// values blend. The content side of the region boundary stays at full
// opacity; the fade happens in a band of featherRadius pixels outside the
// region, so pixels beyond region+featherRadius are never touched.
package feather

import (
	"math"

	"github.com/pixelmend/inpaint/internal/geometry"
)

// Mask is a full-image single-channel blend mask.
type Mask struct {
	Pix    []uint8 // len = Width*Height, row-major
	Width  int
	Height int
}

// NewMask returns a zero-filled mask of the given size.
func NewMask(size geometry.Size) *Mask {
	return &Mask{
		Pix:    make([]uint8, size.Width*size.Height),
		Width:  size.Width,
		Height: size.Height,
	}
}

// At returns the mask value at (x, y), 0 outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{Pix: make([]uint8, len(m.Pix)), Width: m.Width, Height: m.Height}
	copy(out.Pix, m.Pix)
	return out
}

// CreateFeatherMask builds the blend mask for a region.
//
// Inside the region the mask follows a gentle Gaussian falloff of the
// distance to the nearest region edge, staying near full opacity at the
// boundary (the reconstruction must cover the whole marked area). Outside
// the region the mask fades with a Gaussian ramp of the distance to the
// region, reaching 0 at featherRadius; beyond featherRadius it is 0.
func CreateFeatherMask(region geometry.Region, size geometry.Size, featherRadius int) *Mask {
	mask := NewMask(size)
	if featherRadius < 1 {
		featherRadius = 1
	}

	bounds, ok := geometry.ClampToImage(geometry.Expand(region, featherRadius), size)
	if !ok {
		return mask
	}

	fr := float64(featherRadius)
	sigmaIn := math.Max(fr/2, 1)
	for y := bounds.Y; y < bounds.Y+bounds.Height; y++ {
		for x := bounds.X; x < bounds.X+bounds.Width; x++ {
			if region.Contains(x, y) {
				// The whole marked area must be covered by reconstructed
				// content, so even the exact boundary stays at >= 240.
				dIn := float64(insideEdgeDistance(region, x, y))
				v := 240 + 15*(1-math.Exp(-dIn*dIn/(2*sigmaIn*sigmaIn)))
				mask.Pix[y*size.Width+x] = uint8(math.Min(255, v))
				continue
			}
			d := outsideDistance(region, x, y)
			if d >= fr {
				continue
			}
			v := 255 * math.Exp(-(d*d)/(fr*fr)*4)
			mask.Pix[y*size.Width+x] = uint8(v)
		}
	}
	return mask
}

// insideEdgeDistance is the distance from an inside pixel to the nearest
// region edge (0 at the boundary row/column).
func insideEdgeDistance(r geometry.Region, x, y int) int {
	dx := x - r.X
	if right := r.X + r.Width - 1 - x; right < dx {
		dx = right
	}
	dy := y - r.Y
	if bottom := r.Y + r.Height - 1 - y; bottom < dy {
		dy = bottom
	}
	if dx < dy {
		return dx
	}
	return dy
}

// outsideDistance is the Euclidean distance from an outside pixel to the
// region rectangle.
func outsideDistance(r geometry.Region, x, y int) float64 {
	dx := 0
	if x < r.X {
		dx = r.X - x
	} else if x >= r.X+r.Width {
		dx = x - (r.X + r.Width - 1)
	}
	dy := 0
	if y < r.Y {
		dy = r.Y - y
	} else if y >= r.Y+r.Height {
		dy = y - (r.Y + r.Height - 1)
	}
	return math.Hypot(float64(dx), float64(dy))
}

// bilateral filter parameters, tuned against banding in the fade band.
const (
	bilateralWindow     = 9
	bilateralSigmaSpace = 5.0
	bilateralSigmaRange = 50.0
)

// ApplyBilateralFiltering smooths a mask with an intensity-aware bilateral
// pass so the fade band does not show stepping, while value discontinuities
// that carry meaning (the region boundary itself) are preserved.
//
// A filtered output of zero where the input was non-zero falls back to the
// input value; at image borders the normalization denominator can
// underflow and zero out legitimate low mask values.
func ApplyBilateralFiltering(mask *Mask) *Mask {
	out := mask.Clone()
	half := bilateralWindow / 2

	// Precomputed spatial kernel.
	spatial := make([]float64, bilateralWindow*bilateralWindow)
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+half)*bilateralWindow+dx+half] =
				math.Exp(-d2 / (2 * bilateralSigmaSpace * bilateralSigmaSpace))
		}
	}

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			center := float64(mask.Pix[y*mask.Width+x])
			if center == 0 {
				// Nothing to smooth outside the feather band.
				continue
			}
			var num, den float64
			for dy := -half; dy <= half; dy++ {
				yy := y + dy
				if yy < 0 || yy >= mask.Height {
					continue
				}
				for dx := -half; dx <= half; dx++ {
					xx := x + dx
					if xx < 0 || xx >= mask.Width {
						continue
					}
					v := float64(mask.Pix[yy*mask.Width+xx])
					dv := v - center
					w := spatial[(dy+half)*bilateralWindow+dx+half] *
						math.Exp(-dv*dv/(2*bilateralSigmaRange*bilateralSigmaRange))
					num += w * v
					den += w
				}
			}
			filtered := uint8(0)
			if den > 0 {
				filtered = uint8(num/den + 0.5)
			}
			if filtered == 0 {
				filtered = mask.Pix[y*mask.Width+x]
			}
			out.Pix[y*mask.Width+x] = filtered
		}
	}
	return out
}
