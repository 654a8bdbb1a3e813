package noisematch

import (
	"math"
	"math/rand"

	"github.com/anthonynsimon/bild/noise"

	"github.com/pixelmend/inpaint/internal/dsp"
	"github.com/pixelmend/inpaint/internal/raster"
)

// SynthesizeMatchingNoise generates a noise field of the given size whose
// statistics follow the profile: white noise is shaped in the frequency
// domain by the profile's spectrum, spatially correlated with a Gaussian
// neighborhood average sized from the correlation length, and finished
// with independent per-channel jitter scaled by the color-noise magnitude.
//
// The field is centered at mid-gray (128); BlendNoiseWithContent recenters
// it onto the content it perturbs.
func SynthesizeMatchingNoise(p *Profile, width, height int) *raster.Image {
	if width <= 0 || height <= 0 {
		return raster.New(0, 0)
	}

	// White noise base.
	white := noise.Generate(width, height, &noise.Options{NoiseFn: noise.Gaussian, Monochrome: true})
	field := make([]float64, width*height)
	mean := 0.0
	for i := range field {
		field[i] = float64(white.Pix[i*4])
		mean += field[i]
	}
	mean /= float64(len(field))
	for i := range field {
		field[i] -= mean
	}

	field = shapeSpectrum(field, width, height, p)
	field = correlateSpatially(field, width, height, p.CorrelationLength)

	// Normalize to unit spread so the profile's magnitudes set the final
	// amplitude.
	sd := stddev(field)
	if sd > 0 {
		for i := range field {
			field[i] /= sd
		}
	}

	lumaAmp := 255 * (p.ColorNoise[0] + p.ColorNoise[1] + p.ColorNoise[2]) / 3
	out := raster.New(width, height)
	i := 0
	for _, v := range field {
		base := 128 + v*lumaAmp
		for c := 0; c < raster.Channels; c++ {
			jitter := rand.NormFloat64() * p.ColorNoise[c] * 255 * 0.5
			out.Pix[i+c] = raster.ClampByte(base + jitter)
		}
		i += raster.Channels
	}
	return out
}

// shapeSpectrum scales the field's frequency magnitudes by the profile
// spectrum, sampled per bin from the spectrum grid.
func shapeSpectrum(field []float64, w, h int, p *Profile) []float64 {
	if p.SpectrumSize < 2 {
		return field
	}
	freq := dsp.FFT2D(field, w, h)

	// Normalize the PSD so shaping redistributes energy instead of
	// changing the total amount.
	meanPower := 0.0
	for _, v := range p.Spectrum {
		meanPower += v
	}
	meanPower /= float64(len(p.Spectrum))
	if meanPower <= 0 {
		return field
	}

	gs := p.SpectrumSize
	for y := 0; y < h; y++ {
		sy := y * gs / h
		for x := 0; x < w; x++ {
			sx := x * gs / w
			gain := math.Sqrt(p.Spectrum[sy*gs+sx] / meanPower)
			freq[y*w+x] *= complex(gain, 0)
		}
	}
	return dsp.IFFT2D(freq, w, h)
}

// correlateSpatially applies a Gaussian-weighted neighborhood average with
// a kernel radius derived from the correlation length.
func correlateSpatially(field []float64, w, h int, corrLength int) []float64 {
	radius := corrLength / 2
	if radius < 1 {
		return field
	}
	if radius > 8 {
		radius = 8
	}
	sigma := float64(radius) / 1.5
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	// Separable pass, clamped at borders.
	tmp := make([]float64, len(field))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				xx := clampInt(x+k, 0, w-1)
				acc += field[y*w+xx] * kernel[k+radius]
			}
			tmp[y*w+x] = acc
		}
	}
	out := make([]float64, len(field))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				yy := clampInt(y+k, 0, h-1)
				acc += tmp[yy*w+x] * kernel[k+radius]
			}
			out[y*w+x] = acc
		}
	}
	return out
}

// BlendNoiseWithContent linearly blends a noise field into content:
// out = (1-alpha)*content + alpha*noise, with the noise recentered onto
// the content's per-channel mean so the blend perturbs rather than washes
// out. The texture-synthesis path invokes this with alpha = 0.3.
func BlendNoiseWithContent(content, noiseField *raster.Image, alpha float64) *raster.Image {
	if content == nil || noiseField == nil ||
		content.Width != noiseField.Width || content.Height != noiseField.Height {
		return content
	}
	var mean [3]float64
	n := content.Width * content.Height
	for i := 0; i < len(content.Pix); i += raster.Channels {
		mean[0] += float64(content.Pix[i])
		mean[1] += float64(content.Pix[i+1])
		mean[2] += float64(content.Pix[i+2])
	}
	for c := range mean {
		mean[c] /= float64(n)
	}

	out := raster.New(content.Width, content.Height)
	for i := 0; i < len(content.Pix); i += raster.Channels {
		for c := 0; c < raster.Channels; c++ {
			nv := float64(noiseField.Pix[i+c]) - 128 + mean[c]
			out.Pix[i+c] = raster.ClampByte((1-alpha)*float64(content.Pix[i+c]) + alpha*nv)
		}
	}
	return out
}

func stddev(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	acc := 0.0
	for _, x := range v {
		d := x - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(v)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
