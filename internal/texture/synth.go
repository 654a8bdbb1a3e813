package texture

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pixelmend/inpaint/internal/raster"
)

// SwatchSize is the edge length of a synthesized texture swatch. The
// interpolation stage resamples the swatch to the exact target rectangle.
const SwatchSize = 64

// Synthesize produces a deterministic 64x64 RGB swatch from a descriptor.
//
// Each pixel blends the descriptor's mean color with a coordinate-hashed
// lightness perturbation, weighted by the spectral magnitude and LBP
// density at that pixel's coordinates. The result is data-influenced
// plausible texture rather than a copy of source pixels, and identical
// descriptors always synthesize identical swatches.
func Synthesize(d *Descriptor) *raster.Image {
	out := raster.New(SwatchSize, SwatchSize)

	maxFreq := 0.0
	for _, f := range d.Frequencies[1:] { // skip DC, it dwarfs everything
		if f > maxFreq {
			maxFreq = f
		}
	}

	// Lightness spread follows the window's real color spread.
	sigma := math.Sqrt((d.Color.Variance[0]+d.Color.Variance[1]+d.Color.Variance[2])/3) / 255

	l, a, b := d.MeanColor.Lab()
	i := 0
	for y := 0; y < SwatchSize; y++ {
		for x := 0; x < SwatchSize; x++ {
			weight := 0.3
			if maxFreq > 0 {
				fi := d.Frequencies[(y%blockSize)*blockSize+x%blockSize]
				weight += 0.4 * math.Min(1, fi/maxFreq)
			}
			weight += 0.3 * math.Min(1, d.LBP[(x*5+y*3)%256]*64)

			n := hashNoise(x, y) // [0,1), deterministic
			dl := (n - 0.5) * 2 * sigma * weight

			c := colorful.Lab(l+dl, a, b).Clamped()
			r8, g8, b8 := c.RGB255()
			out.Pix[i] = r8
			out.Pix[i+1] = g8
			out.Pix[i+2] = b8
			i += raster.Channels
		}
	}
	return out
}

// hashNoise maps integer coordinates to a repeatable pseudo-random value
// in [0,1).
func hashNoise(x, y int) float64 {
	h := uint32(x)*73856093 ^ uint32(y)*19349663
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return float64(h%10000) / 10000
}
