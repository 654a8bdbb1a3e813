package engine

import (
	"math"

	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

// SSIM parameters (standard constants over 8-bit dynamic range).
const (
	ssimWindow = 11
	ssimK1     = 0.01
	ssimK2     = 0.03
	ssimL      = 255.0
)

// psnrCeiling caps PSNR so identical buffers report a finite score.
const psnrCeiling = 100.0

// artifactThreshold is the adjacent-pixel channel difference treated as a
// visible seam or blocking artifact.
const artifactThreshold = 50

// QualityMetrics scores a reconstruction against the original input.
type QualityMetrics struct {
	PSNR          float64 `json:"psnr"`
	SSIM          float64 `json:"ssim"`
	VisualQuality float64 `json:"visualQuality"`
	ArtifactLevel float64 `json:"artifactLevel"`
}

// EvaluateQuality scores the processed image against the original, both
// over the whole frame and over the target region alone. The region is
// expected to be clamped to the image.
func EvaluateQuality(orig, proc *raster.Image, region geometry.Region) (whole, reg QualityMetrics, err error) {
	artifact := artifactLevel(proc, region)
	whole = scorePair(orig.Pix, proc.Pix, orig.Luma(), proc.Luma(), orig.Width, orig.Height, artifact)

	origCrop, err := orig.Extract(region)
	if err != nil {
		return whole, reg, err
	}
	procCrop, err := proc.Extract(region)
	if err != nil {
		return whole, reg, err
	}
	reg = scorePair(origCrop.Pix, procCrop.Pix, origCrop.Luma(), procCrop.Luma(),
		origCrop.Width, origCrop.Height, artifact)
	return whole, reg, nil
}

func scorePair(a, b []uint8, lumaA, lumaB []float64, w, h int, artifact float64) QualityMetrics {
	psnr := PSNR(a, b)
	ssim := SSIM(lumaA, lumaB, w, h)
	return QualityMetrics{
		PSNR:          psnr,
		SSIM:          ssim,
		VisualQuality: (math.Min(psnr, 50)/50 + ssim) / 2,
		ArtifactLevel: artifact,
	}
}

// PSNR computes the peak signal-to-noise ratio between two equally sized
// byte buffers, in dB, capped at psnrCeiling for identical content.
func PSNR(a, b []uint8) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var mse float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		mse += d * d
	}
	mse /= float64(len(a))
	if mse == 0 {
		return psnrCeiling
	}
	psnr := 10 * math.Log10(255*255/mse)
	return math.Min(psnr, psnrCeiling)
}

// SSIM computes mean structural similarity over non-overlapping 11x11 luma
// windows. Images smaller than one window are scored as a single window.
func SSIM(a, b []float64, w, h int) float64 {
	if len(a) != w*h || len(b) != w*h || w == 0 || h == 0 {
		return 0
	}

	c1 := (ssimK1 * ssimL) * (ssimK1 * ssimL)
	c2 := (ssimK2 * ssimL) * (ssimK2 * ssimL)

	window := func(x0, y0, ww, wh int) float64 {
		var ma, mb float64
		n := float64(ww * wh)
		for y := y0; y < y0+wh; y++ {
			for x := x0; x < x0+ww; x++ {
				ma += a[y*w+x]
				mb += b[y*w+x]
			}
		}
		ma /= n
		mb /= n
		var va, vb, cov float64
		for y := y0; y < y0+wh; y++ {
			for x := x0; x < x0+ww; x++ {
				da := a[y*w+x] - ma
				db := b[y*w+x] - mb
				va += da * da
				vb += db * db
				cov += da * db
			}
		}
		va /= n
		vb /= n
		cov /= n
		return ((2*ma*mb + c1) * (2*cov + c2)) /
			((ma*ma + mb*mb + c1) * (va + vb + c2))
	}

	if w < ssimWindow || h < ssimWindow {
		return window(0, 0, w, h)
	}
	var sum float64
	var count int
	for y := 0; y+ssimWindow <= h; y += ssimWindow {
		for x := 0; x+ssimWindow <= w; x += ssimWindow {
			sum += window(x, y, ssimWindow, ssimWindow)
			count++
		}
	}
	return sum / float64(count)
}

// artifactLevel is the fraction of adjacent pixel pairs inside the region
// whose difference exceeds artifactThreshold in any channel. High values
// flag blocking or seams introduced by the reconstruction.
func artifactLevel(img *raster.Image, region geometry.Region) float64 {
	var hits, pairs int
	check := func(i, j int) {
		pairs++
		for c := 0; c < raster.Channels; c++ {
			d := int(img.Pix[i+c]) - int(img.Pix[j+c])
			if d < 0 {
				d = -d
			}
			if d > artifactThreshold {
				hits++
				return
			}
		}
	}
	for y := region.Y; y < region.Y+region.Height; y++ {
		for x := region.X; x < region.X+region.Width; x++ {
			i := (y*img.Width + x) * raster.Channels
			if x+1 < region.X+region.Width {
				check(i, i+raster.Channels)
			}
			if y+1 < region.Y+region.Height {
				check(i, i+img.Width*raster.Channels)
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(hits) / float64(pairs)
}
