// Package texture extracts statistical texture descriptors from image
// regions and synthesizes plausible texture swatches from them.
//
// A descriptor is produced once per region, is immutable after analysis,
// and is consumed only by Synthesize. The synthesized swatch is
// data-influenced but not an exact copy of any source pixels; the
// interpolation stage resamples it to the exact target size.
package texture

import (
	"fmt"
	"math"
	"sort"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/stat"

	"github.com/pixelmend/inpaint/internal/dsp"
	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

const (
	blockSize   = 8   // frequency analysis block edge
	maxElements = 100 // cap on retained structural elements
	// Gradient energy (mean squared magnitude per block pixel) above which
	// a block contributes a structural element.
	elementEnergyThreshold = 120.0
)

// StructureElement is a locally salient oriented structure inside the
// analyzed window.
type StructureElement struct {
	X           int     `json:"x"` // block origin, window-relative
	Y           int     `json:"y"`
	Orientation float64 `json:"orientation"` // radians, [-pi/2, pi/2)
	Coherence   float64 `json:"coherence"`   // 0 = isotropic, 1 = single direction
	Energy      float64 `json:"energy"`      // mean squared gradient magnitude
}

// ColorStats holds per-channel first- and second-order color statistics.
type ColorStats struct {
	Mean      [3]float64 `json:"mean"`
	Variance  [3]float64 `json:"variance"`
	Histogram [3][32]int `json:"-"`
}

// Descriptor is the texture fingerprint of a region.
type Descriptor struct {
	// Frequencies holds the block-averaged 8x8 spectral magnitudes,
	// row-major, DC at index 0.
	Frequencies [blockSize * blockSize]float64

	// LBP is the normalized 256-bin local binary pattern histogram.
	LBP [256]float64

	// Orientations holds mean gradient energy projected onto 8 directions
	// spaced pi/8 apart, an oriented filter-bank response.
	Orientations [8]float64

	Elements []StructureElement
	Color    ColorStats

	// MeanColor is the window's mean color, used as the synthesis base.
	MeanColor colorful.Color

	// DominantHex is the perceptually dominant color of the window.
	DominantHex string

	// DominantOrientations are the cluster centers of the structural
	// element orientations (radians), strongest cluster first. Empty when
	// the window has too few salient structures to cluster.
	DominantOrientations []float64
}

// AnalyzeRegion computes the texture descriptor of a region. The region
// must already be clamped to the image.
func AnalyzeRegion(img *raster.Image, region geometry.Region) (*Descriptor, error) {
	window, err := img.Extract(region)
	if err != nil {
		return nil, fmt.Errorf("texture: analyze: %w", err)
	}

	d := &Descriptor{}
	luma := window.Luma()

	analyzeFrequencies(d, luma, window.Width, window.Height)
	analyzeLBP(d, luma, window.Width, window.Height)
	analyzeGradients(d, luma, window.Width, window.Height)
	analyzeColor(d, window)
	clusterOrientations(d)

	return d, nil
}

// analyzeFrequencies averages 8x8 block spectral magnitudes across the
// window.
func analyzeFrequencies(d *Descriptor, luma []float64, w, h int) {
	block := make([]float64, blockSize*blockSize)
	blocks := 0
	for by := 0; by+blockSize <= h; by += blockSize {
		for bx := 0; bx+blockSize <= w; bx += blockSize {
			for y := 0; y < blockSize; y++ {
				copy(block[y*blockSize:(y+1)*blockSize], luma[(by+y)*w+bx:(by+y)*w+bx+blockSize])
			}
			mags := dsp.Magnitudes(dsp.FFT2D(block, blockSize, blockSize))
			for i, m := range mags {
				d.Frequencies[i] += m
			}
			blocks++
		}
	}
	if blocks > 0 {
		for i := range d.Frequencies {
			d.Frequencies[i] /= float64(blocks)
		}
	}
}

// analyzeLBP builds the 8-neighbor local binary pattern histogram.
func analyzeLBP(d *Descriptor, luma []float64, w, h int) {
	if w < 3 || h < 3 {
		return
	}
	// Neighbor order is fixed clockwise from the top-left so patterns are
	// comparable across images.
	nx := [8]int{-1, 0, 1, 1, 1, 0, -1, -1}
	ny := [8]int{-1, -1, -1, 0, 1, 1, 1, 0}

	total := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := luma[y*w+x]
			code := 0
			for i := 0; i < 8; i++ {
				if luma[(y+ny[i])*w+x+nx[i]] >= center {
					code |= 1 << i
				}
			}
			d.LBP[code]++
			total++
		}
	}
	if total > 0 {
		for i := range d.LBP {
			d.LBP[i] /= float64(total)
		}
	}
}

// analyzeGradients computes the oriented filter responses and collects
// structural elements from blocks whose gradient energy exceeds the
// threshold.
func analyzeGradients(d *Descriptor, luma []float64, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	gx := make([]float64, w*h)
	gy := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x1 := geometry.Clamp(x+1, 0, w-1)
			y1 := geometry.Clamp(y+1, 0, h-1)
			gx[y*w+x] = luma[y*w+x1] - luma[y*w+x]
			gy[y*w+x] = luma[y1*w+x] - luma[y*w+x]
		}
	}

	// Oriented responses: energy of the gradient projected onto 8
	// directions spaced pi/8 apart.
	n := float64(w * h)
	for o := 0; o < 8; o++ {
		theta := float64(o) * math.Pi / 8
		c, s := math.Cos(theta), math.Sin(theta)
		sum := 0.0
		for i := range gx {
			sum += math.Abs(gx[i]*c + gy[i]*s)
		}
		d.Orientations[o] = sum / n
	}

	// Structure tensor per block.
	for by := 0; by+blockSize <= h; by += blockSize {
		for bx := 0; bx+blockSize <= w; bx += blockSize {
			var jxx, jyy, jxy float64
			for y := by; y < by+blockSize; y++ {
				for x := bx; x < bx+blockSize; x++ {
					i := y*w + x
					jxx += gx[i] * gx[i]
					jyy += gy[i] * gy[i]
					jxy += gx[i] * gy[i]
				}
			}
			area := float64(blockSize * blockSize)
			energy := (jxx + jyy) / area
			if energy <= elementEnergyThreshold {
				continue
			}
			coherence := 0.0
			if jxx+jyy > 0 {
				coherence = math.Sqrt((jxx-jyy)*(jxx-jyy)+4*jxy*jxy) / (jxx + jyy)
			}
			d.Elements = append(d.Elements, StructureElement{
				X:           bx,
				Y:           by,
				Orientation: 0.5 * math.Atan2(2*jxy, jxx-jyy),
				Coherence:   coherence,
				Energy:      energy,
			})
			if len(d.Elements) >= maxElements {
				return
			}
		}
	}
}

func analyzeColor(d *Descriptor, window *raster.Image) {
	n := window.Width * window.Height
	channel := make([]float64, n)
	for c := 0; c < raster.Channels; c++ {
		for i := 0; i < n; i++ {
			v := float64(window.Pix[i*raster.Channels+c])
			channel[i] = v
			d.Color.Histogram[c][int(v)/8]++
		}
		mean, variance := stat.MeanVariance(channel, nil)
		d.Color.Mean[c] = mean
		d.Color.Variance[c] = variance
	}
	d.MeanColor = colorful.Color{
		R: d.Color.Mean[0] / 255,
		G: d.Color.Mean[1] / 255,
		B: d.Color.Mean[2] / 255,
	}
	d.DominantHex = dominantcolor.Hex(dominantcolor.Find(window.ToRGBA()))
}

// clusterOrientations groups structural element orientations into up to
// three dominant directions.
func clusterOrientations(d *Descriptor) {
	if len(d.Elements) < 6 {
		return
	}
	obs := make(clusters.Observations, len(d.Elements))
	for i, e := range d.Elements {
		// Orientation is pi-periodic; clustering on the doubled angle keeps
		// near-vertical structures from splitting across the wrap.
		obs[i] = clusters.Coordinates{math.Cos(2 * e.Orientation), math.Sin(2 * e.Orientation)}
	}
	k := 3
	if len(obs) < 2*k {
		k = 2
	}
	km := kmeans.New()
	groups, err := km.Partition(obs, k)
	if err != nil {
		return
	}
	sort.Slice(groups, func(i, j int) bool {
		return len(groups[i].Observations) > len(groups[j].Observations)
	})
	for _, g := range groups {
		if len(g.Center) != 2 || len(g.Observations) == 0 {
			continue
		}
		d.DominantOrientations = append(d.DominantOrientations,
			0.5*math.Atan2(g.Center[1], g.Center[0]))
	}
}
