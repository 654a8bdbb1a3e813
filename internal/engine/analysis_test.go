package engine

import (
	"testing"

	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

func TestSelectMethod(t *testing.T) {
	tests := []struct {
		name           string
		tc, es, cv, pr float64
		want           Method
	}{
		{"repetitive complex texture", 0.8, 0.9, 0.3, 0.7, MethodTextureSynthesis},
		{"strong edges", 0.3, 0.7, 0.2, 0.1, MethodPatchBased},
		{"complex but not repetitive", 0.8, 0.7, 0.3, 0.3, MethodPatchBased},
		{"busy texture", 0.6, 0.2, 0.2, 0.1, MethodHybrid},
		{"colorful", 0.2, 0.2, 0.7, 0.1, MethodHybrid},
		{"smooth", 0.1, 0.1, 0.1, 0.1, MethodBasic},
		{"exact thresholds stay basic", 0.5, 0.6, 0.6, 0.6, MethodBasic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectMethod(tt.tc, tt.es, tt.cv, tt.pr)
			if got != tt.want {
				t.Errorf("SelectMethod(%.1f,%.1f,%.1f,%.1f) = %s, want %s",
					tt.tc, tt.es, tt.cv, tt.pr, got, tt.want)
			}
		})
	}
}

func TestAnalyzeContext_FlatImage(t *testing.T) {
	img := raster.NewFilled(100, 100, 128, 128, 128)
	a, err := AnalyzeContext(img, geometry.Region{X: 40, Y: 40, Width: 20, Height: 20})
	if err != nil {
		t.Fatalf("AnalyzeContext: %v", err)
	}
	if a.TextureComplexity > 0.05 {
		t.Errorf("flat texture complexity = %f, want ~0", a.TextureComplexity)
	}
	if a.EdgeStrength > 0.05 {
		t.Errorf("flat edge strength = %f, want ~0", a.EdgeStrength)
	}
	if a.ColorVariation > 0.05 {
		t.Errorf("flat color variation = %f, want ~0", a.ColorVariation)
	}
	// Identical flat blocks are perfectly repetitive.
	if a.PatternRepetition < 0.99 {
		t.Errorf("flat pattern repetition = %f, want 1", a.PatternRepetition)
	}
	if a.RecommendedMethod != MethodBasic {
		t.Errorf("flat image method = %s, want %s", a.RecommendedMethod, MethodBasic)
	}
}

func TestAnalyzeContext_Checkerboard(t *testing.T) {
	// A period-2 checkerboard is complex and perfectly 8-periodic, which is
	// exactly what the texture synthesizer handles.
	img := checkerboard(150, 150, 1, 0, 255)
	a, err := AnalyzeContext(img, geometry.Region{X: 65, Y: 65, Width: 20, Height: 20})
	if err != nil {
		t.Fatalf("AnalyzeContext: %v", err)
	}
	if a.TextureComplexity < 0.9 {
		t.Errorf("checkerboard texture complexity = %f, want ~1", a.TextureComplexity)
	}
	if a.PatternRepetition < 0.9 {
		t.Errorf("checkerboard pattern repetition = %f, want ~1", a.PatternRepetition)
	}
	if a.RecommendedMethod != MethodTextureSynthesis {
		t.Errorf("checkerboard method = %s, want %s", a.RecommendedMethod, MethodTextureSynthesis)
	}
}

func TestAnalyzeContext_DiagonalStripes(t *testing.T) {
	// Period-3 diagonal stripes break 8-pixel periodicity, so repetition is
	// low while edge strength saturates: the patch method should win.
	img := raster.New(150, 150)
	i := 0
	for y := 0; y < 150; y++ {
		for x := 0; x < 150; x++ {
			v := uint8(0)
			if (x+y)%3 == 0 {
				v = 255
			}
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
			i += raster.Channels
		}
	}
	a, err := AnalyzeContext(img, geometry.Region{X: 65, Y: 65, Width: 20, Height: 20})
	if err != nil {
		t.Fatalf("AnalyzeContext: %v", err)
	}
	if a.EdgeStrength < 0.6 {
		t.Errorf("stripe edge strength = %f, want > 0.6", a.EdgeStrength)
	}
	if a.PatternRepetition > 0.6 {
		t.Errorf("stripe pattern repetition = %f, want low", a.PatternRepetition)
	}
	if a.RecommendedMethod != MethodPatchBased {
		t.Errorf("stripe method = %s, want %s", a.RecommendedMethod, MethodPatchBased)
	}
}

func TestAnalyzeContext_BlockGrid(t *testing.T) {
	// Flat 8x8 blocks of two alternating levels: moderately complex, hardly
	// any edges, adjacent blocks at different levels. Hybrid territory.
	img := checkerboard(120, 120, 8, 100, 200)
	a, err := AnalyzeContext(img, geometry.Region{X: 48, Y: 48, Width: 24, Height: 24})
	if err != nil {
		t.Fatalf("AnalyzeContext: %v", err)
	}
	if a.RecommendedMethod != MethodHybrid {
		t.Errorf("block grid method = %s (tc=%.2f es=%.2f cv=%.2f pr=%.2f), want %s",
			a.RecommendedMethod, a.TextureComplexity, a.EdgeStrength,
			a.ColorVariation, a.PatternRepetition, MethodHybrid)
	}
}

// checkerboard fills an image with a two-level checker pattern of the given
// cell size.
func checkerboard(w, h, cell int, lo, hi uint8) *raster.Image {
	img := raster.New(w, h)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lo
			if (x/cell+y/cell)%2 == 0 {
				v = hi
			}
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
			i += raster.Channels
		}
	}
	return img
}
