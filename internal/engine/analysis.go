package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

// contextMargin is how far beyond the target region the surroundings are
// read for method selection.
const contextMargin = 30

// analysisBlock is the tile size used for the pattern-repetition measure.
const analysisBlock = 8

// Method identifies a reconstruction strategy.
type Method string

const (
	// MethodBasic averages nearby patches and resamples; the workhorse for
	// smooth, low-detail surroundings.
	MethodBasic Method = "basic"

	// MethodTextureSynthesis generates new texture from a statistical
	// descriptor of the surroundings.
	MethodTextureSynthesis Method = "texture-synthesis"

	// MethodPatchBased blends the best-matching sampled patches, preserving
	// structure lines through edge-directed resampling.
	MethodPatchBased Method = "patch-based"

	// MethodHybrid merges the texture and patch outputs radially.
	MethodHybrid Method = "hybrid"
)

// ContextAnalysis summarizes the surroundings of a target region. All four
// measures are normalized to [0,1].
type ContextAnalysis struct {
	TextureComplexity float64 `json:"textureComplexity"`
	EdgeStrength      float64 `json:"edgeStrength"`
	ColorVariation    float64 `json:"colorVariation"`
	PatternRepetition float64 `json:"patternRepetition"`
	RecommendedMethod Method  `json:"recommendedMethod"`
}

// AnalyzeContext measures the region's surroundings (the region expanded
// by contextMargin, clamped to the image) and recommends a reconstruction
// method.
func AnalyzeContext(img *raster.Image, region geometry.Region) (*ContextAnalysis, error) {
	window, ok := geometry.ClampToImage(geometry.Expand(region, contextMargin), img.Size())
	if !ok {
		return nil, ErrInvalidRegion
	}
	ctxImg, err := img.Extract(window)
	if err != nil {
		return nil, err
	}

	luma := ctxImg.Luma()
	a := &ContextAnalysis{
		TextureComplexity: clamp01(stat.Variance(luma, nil) / 4096),
		EdgeStrength:      clamp01(meanGradient(ctxImg) / 128),
		ColorVariation:    clamp01(meanChannelVariance(ctxImg) / 4096),
		PatternRepetition: patternRepetition(luma, ctxImg.Width, ctxImg.Height),
	}
	a.RecommendedMethod = SelectMethod(a.TextureComplexity, a.EdgeStrength, a.ColorVariation, a.PatternRepetition)
	return a, nil
}

// SelectMethod maps the four context measures to a strategy. The rules are
// ordered: repetitive complex texture wins, then strong edges, then general
// busyness, then the basic fallback.
func SelectMethod(textureComplexity, edgeStrength, colorVariation, patternRepetition float64) Method {
	switch {
	case textureComplexity > 0.7 && patternRepetition > 0.6:
		return MethodTextureSynthesis
	case edgeStrength > 0.6:
		return MethodPatchBased
	case textureComplexity > 0.5 || colorVariation > 0.6:
		return MethodHybrid
	default:
		return MethodBasic
	}
}

// meanGradient is the average finite-difference gradient magnitude,
// |dx|+|dy| summed over channels and averaged per sample.
func meanGradient(img *raster.Image) float64 {
	w, h := img.Width, img.Height
	if w < 2 || h < 2 {
		return 0
	}
	var sum float64
	var n int
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			i := (y*w + x) * raster.Channels
			for c := 0; c < raster.Channels; c++ {
				dx := float64(img.Pix[i+raster.Channels+c]) - float64(img.Pix[i+c])
				dy := float64(img.Pix[i+w*raster.Channels+c]) - float64(img.Pix[i+c])
				sum += math.Abs(dx) + math.Abs(dy)
				n += 2
			}
		}
	}
	return sum / float64(n)
}

// meanChannelVariance averages the per-channel pixel variances.
func meanChannelVariance(img *raster.Image) float64 {
	n := img.Width * img.Height
	if n < 2 {
		return 0
	}
	chans := [raster.Channels][]float64{}
	for c := range chans {
		chans[c] = make([]float64, n)
	}
	for p := 0; p < n; p++ {
		i := p * raster.Channels
		for c := 0; c < raster.Channels; c++ {
			chans[c][p] = float64(img.Pix[i+c])
		}
	}
	var sum float64
	for c := range chans {
		sum += stat.Variance(chans[c], nil)
	}
	return sum / raster.Channels
}

// patternRepetition tiles the luma plane into 8x8 blocks and averages the
// normalized cross-correlation of horizontally and vertically adjacent
// blocks, floored at zero. Flat block pairs correlate fully when their
// means agree.
func patternRepetition(luma []float64, w, h int) float64 {
	bx := w / analysisBlock
	by := h / analysisBlock
	if bx < 2 && by < 2 {
		return 0
	}

	block := func(cx, cy int) []float64 {
		out := make([]float64, analysisBlock*analysisBlock)
		for y := 0; y < analysisBlock; y++ {
			copy(out[y*analysisBlock:(y+1)*analysisBlock],
				luma[(cy*analysisBlock+y)*w+cx*analysisBlock:])
		}
		return out[:analysisBlock*analysisBlock]
	}

	var sum float64
	var n int
	score := func(a, b []float64) float64 {
		ncc := stat.Correlation(a, b, nil)
		if math.IsNaN(ncc) {
			// At least one flat block: fully repetitive if levels match.
			if math.Abs(stat.Mean(a, nil)-stat.Mean(b, nil)) <= 1 {
				return 1
			}
			return 0
		}
		return math.Max(0, ncc)
	}
	for cy := 0; cy < by; cy++ {
		for cx := 0; cx < bx; cx++ {
			cur := block(cx, cy)
			if cx+1 < bx {
				sum += score(cur, block(cx+1, cy))
				n++
			}
			if cy+1 < by {
				sum += score(cur, block(cx, cy+1))
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
