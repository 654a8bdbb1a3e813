// Package noisematch estimates the local sensor/compression noise of an
// image region and synthesizes statistically matching noise, so that
// reconstructed content does not stand out as unnaturally clean.
package noisematch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pixelmend/inpaint/internal/dsp"
	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

// AnalysisMargin is how far beyond the target region the noise estimate
// looks. Callers expand the region by this margin and must re-clamp before
// calling AnalyzeLocalNoise.
const AnalysisMargin = 20

const maxBlock = 64 // PSD estimation block edge

// Profile captures the noise characteristics of a region.
type Profile struct {
	// Spectrum is the block-averaged power spectral density, row-major,
	// SpectrumSize x SpectrumSize.
	Spectrum     []float64
	SpectrumSize int

	// GrainSize is the estimated noise grain scale in [1, 10].
	GrainSize float64

	// CorrelationLength is the lag (pixels) maximizing the windowed
	// autocorrelation of luma, up to min(w,h)/4.
	CorrelationLength int

	// ColorNoise is the per-channel noise magnitude, stddev/255.
	ColorNoise [3]float64
}

// AnalyzeLocalNoise estimates the noise profile over the given window,
// which is expected to be the target region expanded by AnalysisMargin and
// already clamped to the image.
func AnalyzeLocalNoise(img *raster.Image, window geometry.Region) (*Profile, error) {
	w, err := img.Extract(window)
	if err != nil {
		return nil, fmt.Errorf("noisematch: analyze: %w", err)
	}
	luma := w.Luma()

	p := &Profile{}
	p.estimateSpectrum(luma, w.Width, w.Height)
	p.GrainSize = estimateGrain(luma, w.Width, w.Height)
	p.CorrelationLength = estimateCorrelationLength(luma, w.Width, w.Height)

	n := w.Width * w.Height
	channel := make([]float64, n)
	for c := 0; c < raster.Channels; c++ {
		for i := 0; i < n; i++ {
			channel[i] = float64(w.Pix[i*raster.Channels+c])
		}
		p.ColorNoise[c] = stat.StdDev(channel, nil) / 255
	}
	return p, nil
}

// estimateSpectrum averages block power spectra over overlapping blocks
// (64x64 or the largest size the window allows).
func (p *Profile) estimateSpectrum(luma []float64, w, h int) {
	block := maxBlock
	if w < block {
		block = w
	}
	if h < block {
		block = h
	}
	if block < 2 {
		p.Spectrum = []float64{1}
		p.SpectrumSize = 1
		return
	}

	p.SpectrumSize = block
	p.Spectrum = make([]float64, block*block)
	tile := make([]float64, block*block)
	step := block / 2
	if step < 1 {
		step = 1
	}

	count := 0
	for by := 0; by+block <= h; by += step {
		for bx := 0; bx+block <= w; bx += step {
			// Remove the block mean so the PSD describes fluctuation, not
			// brightness.
			mean := 0.0
			for y := 0; y < block; y++ {
				for x := 0; x < block; x++ {
					mean += luma[(by+y)*w+bx+x]
				}
			}
			mean /= float64(block * block)
			for y := 0; y < block; y++ {
				for x := 0; x < block; x++ {
					tile[y*block+x] = luma[(by+y)*w+bx+x] - mean
				}
			}
			ps := dsp.PowerSpectrum(dsp.FFT2D(tile, block, block))
			for i, v := range ps {
				p.Spectrum[i] += v
			}
			count++
		}
	}
	if count > 0 {
		for i := range p.Spectrum {
			p.Spectrum[i] /= float64(count)
		}
	}
}

// estimateGrain averages the 4-neighbor absolute difference of luma and
// scales it into [1, 10].
func estimateGrain(luma []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 1
	}
	sum := 0.0
	n := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := luma[y*w+x]
			d := math.Abs(c-luma[y*w+x-1]) + math.Abs(c-luma[y*w+x+1]) +
				math.Abs(c-luma[(y-1)*w+x]) + math.Abs(c-luma[(y+1)*w+x])
			sum += d / 4
			n++
		}
	}
	avg := sum / float64(n)
	return 1 + 9*math.Min(1, avg/255)
}

// estimateCorrelationLength scans lags up to min(w,h)/4 for the one
// maximizing the windowed autocorrelation of luma rows.
func estimateCorrelationLength(luma []float64, w, h int) int {
	maxLag := w
	if h < maxLag {
		maxLag = h
	}
	maxLag /= 4
	if maxLag < 1 {
		return 1
	}

	mean := stat.Mean(luma, nil)
	variance := stat.Variance(luma, nil)
	if variance == 0 {
		return 1
	}

	bestLag, bestCorr := 1, math.Inf(-1)
	for lag := 1; lag <= maxLag; lag++ {
		sum := 0.0
		n := 0
		for y := 0; y < h; y++ {
			row := luma[y*w : (y+1)*w]
			for x := 0; x+lag < w; x++ {
				sum += (row[x] - mean) * (row[x+lag] - mean)
				n++
			}
		}
		if n == 0 {
			break
		}
		corr := sum / (float64(n) * variance)
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	return bestLag
}
