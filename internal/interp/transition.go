package interp

import (
	"math"

	"github.com/pixelmend/inpaint/internal/raster"
)

// CreateSmoothTransition blends two equally sized buffers per pixel,
// driven by a single-channel mask in [0,1]: mask 1 takes from, mask 0
// takes to. The hybrid method uses it to merge the texture-synthesis and
// patch-based outputs.
func CreateSmoothTransition(from, to *raster.Image, mask []float64, width, height int) *raster.Image {
	out := raster.New(width, height)
	if from == nil || to == nil ||
		from.Width != width || from.Height != height ||
		to.Width != width || to.Height != height ||
		len(mask) != width*height {
		if to != nil && to.Width == width && to.Height == height {
			copy(out.Pix, to.Pix)
		}
		return out
	}

	for p := 0; p < width*height; p++ {
		m := mask[p]
		if m < 0 {
			m = 0
		} else if m > 1 {
			m = 1
		}
		i := p * raster.Channels
		for c := 0; c < raster.Channels; c++ {
			out.Pix[i+c] = raster.ClampByte(m*float64(from.Pix[i+c]) + (1-m)*float64(to.Pix[i+c]))
		}
	}
	return out
}

// RadialMask builds the hybrid-merge mask: 1 at the rectangle center
// falling to 0 at the corners, so centrally weighted content dominates the
// middle and the other source dominates near the edges.
func RadialMask(width, height int) []float64 {
	mask := make([]float64, width*height)
	cx := float64(width-1) / 2
	cy := float64(height-1) / 2
	maxDist := math.Hypot(cx, cy)
	if maxDist == 0 {
		for i := range mask {
			mask[i] = 1
		}
		return mask
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			mask[y*width+x] = 1 - d/maxDist
		}
	}
	return mask
}
