package feather

import (
	"fmt"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/convolution"

	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

const (
	// Adaptive radius bounds; strong local edges pull the radius down for
	// sharper transitions, flat surroundings push it up.
	minAdaptiveRadius = 10
	maxAdaptiveRadius = 35

	// edgeDetectMargin is how far beyond the region edges are inspected.
	edgeDetectMargin = 16

	// protectThreshold is the edge-response level above which a mask pixel
	// keeps its un-smoothed value.
	protectThreshold = 60
)

// laplacian is the 4-neighbor edge detection kernel.
var laplacian = &convolution.Kernel{
	Matrix: []float64{
		0, -1, 0,
		-1, 4, -1,
		0, -1, 0,
	},
	Width:  3,
	Height: 3,
}

// CreateAdaptiveFeathering builds a feather mask whose radius adapts to
// the edge structure around the region.
//
// Edges are detected with a Laplacian convolution over an expanded window,
// the mean edge response picks a radius in [10, 35], the base mask is
// bilateral-filtered, and pixels near a strong detected edge keep their
// un-smoothed mask value so real image boundaries stay sharp while flat
// areas still feather.
func CreateAdaptiveFeathering(img *raster.Image, region geometry.Region) (*Mask, error) {
	size := img.Size()
	window, ok := geometry.ClampToImage(geometry.Expand(region, edgeDetectMargin), size)
	if !ok {
		return nil, fmt.Errorf("feather: adaptive window for %+v does not intersect image", region)
	}
	pixels, err := img.Extract(window)
	if err != nil {
		return nil, fmt.Errorf("feather: adaptive: %w", err)
	}

	// Laplacian response, de-speckled with a light Gaussian blur.
	edges := convolution.Convolve(pixels.ToRGBA(), laplacian, &convolution.Options{Bias: 0, Wrap: false})
	smoothed := blur.Gaussian(edges, 1.5)

	edgeMap := raster.FromImage(smoothed).Luma()
	mean := 0.0
	for _, v := range edgeMap {
		mean += v
	}
	mean /= float64(len(edgeMap))

	// Normalize the mean response so typical photographs span the radius
	// range; 64 is full strength.
	strength := mean / 64
	if strength > 1 {
		strength = 1
	}
	radius := maxAdaptiveRadius - int(strength*float64(maxAdaptiveRadius-minAdaptiveRadius))

	base := CreateFeatherMask(region, size, radius)
	filtered := ApplyBilateralFiltering(base)

	// Edge protection: near a strong detected edge, the base mask value
	// wins over the smoothed one.
	for wy := 0; wy < window.Height; wy++ {
		for wx := 0; wx < window.Width; wx++ {
			if edgeMap[wy*window.Width+wx] <= protectThreshold {
				continue
			}
			x, y := window.X+wx, window.Y+wy
			filtered.Pix[y*size.Width+x] = base.Pix[y*size.Width+x]
		}
	}
	return filtered, nil
}

// AdaptiveRadiusRange reports the radius bounds used by
// CreateAdaptiveFeathering.
func AdaptiveRadiusRange() (min, max int) {
	return minAdaptiveRadius, maxAdaptiveRadius
}
