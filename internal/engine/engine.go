// Package engine orchestrates content-aware reconstruction of rectangular
// image regions.
//
// The pipeline analyzes the surroundings of the target region, picks one of
// four reconstruction methods, generates replacement content, and blends it
// back through a feather mask so the result fades seamlessly into the
// untouched pixels. Quality of the result is scored against the input with
// PSNR and SSIM. With noise matching disabled the whole pipeline is
// deterministic: the same input bytes and region always produce the same
// output bytes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/anthonynsimon/bild/blur"

	"github.com/pixelmend/inpaint/internal/feather"
	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/interp"
	"github.com/pixelmend/inpaint/internal/noisematch"
	"github.com/pixelmend/inpaint/internal/raster"
	"github.com/pixelmend/inpaint/internal/sampler"
	"github.com/pixelmend/inpaint/internal/texture"
)

// basicPatchLimit caps how many patches the basic method averages.
const basicPatchLimit = 10

// fallbackBlurRadius is the Gaussian radius used when a region has no
// usable surroundings to sample from.
const fallbackBlurRadius = 4.0

// noiseBlendAlpha is the grain mix-in strength when noise matching is on.
const noiseBlendAlpha = 0.3

// selectedPatchCount is how many ranked patches the patch-based method
// blends.
const selectedPatchCount = 8

var debugEnabled = os.Getenv("INPAINT_LOG_LEVEL") == "debug"

func debugf(format string, args ...any) {
	if debugEnabled {
		log.Printf("engine: "+format, args...)
	}
}

// ProcessingResult carries the reconstructed image and the metrics
// describing how it was produced.
type ProcessingResult struct {
	Image  *raster.Image `json:"-"`
	Data   []byte        `json:"-"`
	Format raster.Format `json:"format,omitempty"`

	Method            Method         `json:"method"`
	Quality           QualityMetrics `json:"quality"`
	RegionQuality     QualityMetrics `json:"regionQuality"`
	TextureComplexity float64        `json:"textureComplexity"`
	EdgeStrength      float64        `json:"edgeStrength"`

	Duration         time.Duration `json:"-"`
	ProcessingTimeMS float64       `json:"processingTimeMs"`
}

// Reconstruct decodes an encoded image, reconstructs the target region and
// re-encodes in the mirrored container format.
func Reconstruct(ctx context.Context, data []byte, region geometry.Region, opts *Options) (*ProcessingResult, error) {
	img, format, err := raster.Decode(data)
	if err != nil {
		if errors.Is(err, raster.ErrMetadata) {
			return nil, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	res, err := ReconstructImage(ctx, img, region, opts)
	if err != nil {
		return nil, err
	}
	res.Format = raster.EncodeFormat(format)
	res.Data, err = raster.Encode(res.Image, format)
	if err != nil {
		return nil, wrapStage("encode", err)
	}
	return res, nil
}

// ReconstructImage runs the reconstruction pipeline on a decoded pixel
// buffer. The region is clamped to the image; options are filled from
// defaults and then adapted to the analyzed surroundings. The input image
// is never modified.
func ReconstructImage(ctx context.Context, img *raster.Image, region geometry.Region, opts *Options) (*ProcessingResult, error) {
	start := time.Now()
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, ErrMetadataUnavailable
	}
	clamped, ok := geometry.ClampToImage(region, img.Size())
	if !ok {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d image",
			ErrInvalidRegion, region.Width, region.Height, region.X, region.Y, img.Width, img.Height)
	}
	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	analysis, err := AnalyzeContext(img, clamped)
	if err != nil {
		return nil, wrapStage("analysis", err)
	}
	tuned := opts.normalized().adaptTo(analysis)
	method := analysis.RecommendedMethod
	debugf("region %dx%d at (%d,%d): method=%s tc=%.2f es=%.2f cv=%.2f pr=%.2f",
		clamped.Width, clamped.Height, clamped.X, clamped.Y, method,
		analysis.TextureComplexity, analysis.EdgeStrength,
		analysis.ColorVariation, analysis.PatternRepetition)
	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	content, mask, err := reconstructContent(img, clamped, tuned, method)
	if err != nil {
		return nil, err
	}
	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	out := composite(img, content, mask, clamped, fadeRadius(tuned))
	whole, regQ, err := EvaluateQuality(img, out, clamped)
	if err != nil {
		return nil, wrapStage("quality", err)
	}

	d := time.Since(start)
	return &ProcessingResult{
		Image:             out,
		Method:            method,
		Quality:           whole,
		RegionQuality:     regQ,
		TextureComplexity: round2(analysis.TextureComplexity),
		EdgeStrength:      round2(analysis.EdgeStrength),
		Duration:          d,
		ProcessingTimeMS:  float64(d.Microseconds()) / 1000,
	}, nil
}

// reconstructContent produces region-sized replacement pixels and the
// full-image blend mask for the chosen method.
func reconstructContent(img *raster.Image, region geometry.Region, opts *Options, method Method) (*raster.Image, *feather.Mask, error) {
	switch method {
	case MethodTextureSynthesis:
		content, err := textureContent(img, region, opts)
		if err != nil {
			return nil, nil, err
		}
		mask, err := feather.CreateAdaptiveFeathering(img, region)
		if err != nil {
			return nil, nil, wrapStage("feathering", err)
		}
		return content, mask, nil

	case MethodPatchBased:
		content := patchContent(img, region, opts)
		return content, feather.CreateFeatherMask(region, img.Size(), opts.FeatherRadius), nil

	case MethodHybrid:
		tex, err := textureContent(img, region, opts)
		if err != nil {
			return nil, nil, err
		}
		patch := patchContent(img, region, opts)
		content := interp.CreateSmoothTransition(tex, patch,
			interp.RadialMask(region.Width, region.Height), region.Width, region.Height)
		mask, err := feather.CreateAdaptiveFeathering(img, region)
		if err != nil {
			return nil, nil, wrapStage("feathering", err)
		}
		return content, mask, nil

	default: // MethodBasic
		content, err := basicContent(img, region, opts)
		if err != nil {
			return nil, nil, err
		}
		return content, feather.CreateFeatherMask(region, img.Size(), opts.FeatherRadius), nil
	}
}

// basicContent averages up to basicPatchLimit nearby patches with equal
// weight and resamples the blend to the region. A region with no usable
// surroundings falls back to blurring its own pixels.
func basicContent(img *raster.Image, region geometry.Region, opts *Options) (*raster.Image, error) {
	patches := sampler.SampleSurroundingContent(img, region, opts.SamplingRadius).Flatten()
	if len(patches) == 0 {
		debugf("basic: no patches in radius %d, blurring region content", opts.SamplingRadius)
		crop, err := img.Extract(region)
		if err != nil {
			return nil, wrapStage("sampling", err)
		}
		return raster.FromImage(blur.Gaussian(crop.ToRGBA(), fallbackBlurRadius)), nil
	}
	if len(patches) > basicPatchLimit {
		patches = patches[:basicPatchLimit]
	}
	weights := make([]float64, len(patches))
	for i := range weights {
		weights[i] = 1 / float64(len(patches))
	}
	blend := sampler.WeightAndBlendPatches(patches, weights)
	return interp.InterpolateWithEdgePreservation(blend, region.Width, region.Height, interp.Bicubic), nil
}

// textureContent synthesizes a texture swatch from the region's
// surroundings and resamples it to the region, optionally blending in
// matched grain.
func textureContent(img *raster.Image, region geometry.Region, opts *Options) (*raster.Image, error) {
	margin := geometry.Clamp(10*opts.TextureAnalysisDepth, 20, 50)
	window, ok := geometry.ClampToImage(geometry.Expand(region, margin), img.Size())
	if !ok {
		return nil, wrapStage("texture", ErrInvalidRegion)
	}
	desc, err := texture.AnalyzeRegion(img, window)
	if err != nil {
		return nil, wrapStage("texture", err)
	}
	swatch := texture.Synthesize(desc)

	method := interp.Bicubic
	if opts.QualityLevel == QualityBest {
		method = interp.AnisotropicDiffusion
	}
	content := interp.InterpolateWithEdgePreservation(swatch, region.Width, region.Height, method)

	if opts.NoiseMatching {
		nw, ok := geometry.ClampToImage(geometry.Expand(region, noisematch.AnalysisMargin), img.Size())
		if ok {
			profile, err := noisematch.AnalyzeLocalNoise(img, nw)
			if err != nil {
				return nil, wrapStage("noise", err)
			}
			field := noisematch.SynthesizeMatchingNoise(profile, region.Width, region.Height)
			content = noisematch.BlendNoiseWithContent(content, field, noiseBlendAlpha)
		}
	}
	return content, nil
}

// patchContent blends the best-matching sampled patches and resamples the
// blend to the region. With no patches available the interpolator degrades
// to a neutral fill.
func patchContent(img *raster.Image, region geometry.Region, opts *Options) *raster.Image {
	samples := sampler.SampleSurroundingContent(img, region, opts.SamplingRadius)
	best, weights := sampler.SelectBestPatches(samples.Flatten(), sampler.ReferencePatch(), selectedPatchCount)

	var blend *raster.Image
	if len(best) > 0 {
		blend = sampler.WeightAndBlendPatches(best, weights)
	}

	method := interp.Bicubic
	switch {
	case opts.EdgePreservation:
		method = interp.EdgeDirected
	case opts.QualityLevel == QualityBest:
		method = interp.Lanczos
	}
	return interp.InterpolateWithEdgePreservation(blend, region.Width, region.Height, method)
}

// fadeRadius is the widest fade band any mask built for these options can
// produce: the caller's feather radius for the fixed masks, the adaptive
// ceiling for the adaptive ones.
func fadeRadius(opts *Options) int {
	_, maxAdaptive := feather.AdaptiveRadiusRange()
	if opts.FeatherRadius > maxAdaptive {
		return opts.FeatherRadius
	}
	return maxAdaptive
}

// composite blends region-sized content into a copy of the image through
// the mask, scanning the region padded by the fade radius. Content
// coordinates are clamped to the region so the fade band outside the
// region samples the nearest content edge.
func composite(img, content *raster.Image, mask *feather.Mask, region geometry.Region, radius int) *raster.Image {
	out := img.Clone()
	if content == nil || content.Width == 0 || content.Height == 0 {
		return out
	}
	bounds, ok := geometry.ClampToImage(geometry.Expand(region, radius+1), img.Size())
	if !ok {
		return out
	}
	for y := bounds.Y; y < bounds.Y+bounds.Height; y++ {
		for x := bounds.X; x < bounds.X+bounds.Width; x++ {
			m := int(mask.At(x, y))
			if m == 0 {
				continue
			}
			cx := geometry.Clamp(x-region.X, 0, content.Width-1)
			cy := geometry.Clamp(y-region.Y, 0, content.Height-1)
			ci := (cy*content.Width + cx) * raster.Channels
			oi := (y*img.Width + x) * raster.Channels
			for c := 0; c < raster.Channels; c++ {
				out.Pix[oi+c] = uint8((m*int(content.Pix[ci+c]) + (255-m)*int(img.Pix[oi+c]) + 127) / 255)
			}
		}
	}
	return out
}

func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return ctx.Err()
	default:
		return nil
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
