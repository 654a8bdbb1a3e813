package interp

import (
	"math"

	"github.com/pixelmend/inpaint/internal/raster"
)

// Perona-Malik diffusion parameters.
const (
	diffusionIterations = 10
	diffusionKappa      = 30.0
	diffusionGamma      = 0.1
)

// diffuse refines an image with edge-preserving anisotropic diffusion:
// flat areas smooth out while strong gradients conduct little and stay
// sharp. Conductance is exp(-(d/kappa)^2).
func diffuse(img *raster.Image) *raster.Image {
	w, h := img.Width, img.Height
	if w < 3 || h < 3 {
		return img
	}

	cur := make([]float64, len(img.Pix))
	for i, v := range img.Pix {
		cur[i] = float64(v)
	}
	next := make([]float64, len(cur))

	conduct := func(d float64) float64 {
		r := d / diffusionKappa
		return math.Exp(-r * r)
	}

	for it := 0; it < diffusionIterations; it++ {
		copy(next, cur)
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				base := (y*w + x) * raster.Channels
				for c := 0; c < raster.Channels; c++ {
					i := base + c
					v := cur[i]
					dn := cur[i-w*raster.Channels] - v
					ds := cur[i+w*raster.Channels] - v
					dw := cur[i-raster.Channels] - v
					de := cur[i+raster.Channels] - v
					next[i] = v + diffusionGamma*
						(conduct(dn)*dn+conduct(ds)*ds+conduct(dw)*dw+conduct(de)*de)
				}
			}
		}
		cur, next = next, cur
	}

	out := raster.New(w, h)
	for i, v := range cur {
		out.Pix[i] = raster.ClampByte(v)
	}
	return out
}
