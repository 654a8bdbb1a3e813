package engine

import (
	"math"
	"testing"

	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

func TestPSNR(t *testing.T) {
	a := make([]uint8, 300)
	b := make([]uint8, 300)
	for i := range a {
		a[i] = 100
		b[i] = 100
	}
	if got := PSNR(a, b); got != psnrCeiling {
		t.Errorf("identical buffers: got %f, want %f", got, psnrCeiling)
	}

	// Uniform offset of 10 gives MSE 100: 10*log10(255^2/100) = 28.13 dB.
	for i := range b {
		b[i] = 110
	}
	if got := PSNR(a, b); math.Abs(got-28.13) > 0.01 {
		t.Errorf("offset buffers: got %f, want 28.13", got)
	}

	if got := PSNR(a, b[:10]); got != 0 {
		t.Errorf("mismatched lengths: got %f, want 0", got)
	}
}

func TestSSIM(t *testing.T) {
	w, h := 33, 33
	a := make([]float64, w*h)
	b := make([]float64, w*h)
	for i := range a {
		a[i] = float64((i*7)%200 + 30)
		b[i] = a[i]
	}
	if got := SSIM(a, b, w, h); got < 0.999 {
		t.Errorf("identical planes: got %f, want ~1", got)
	}

	for i := range b {
		b[i] = 255 - a[i]
	}
	if got := SSIM(a, b, w, h); got > 0.5 {
		t.Errorf("inverted planes: got %f, want low", got)
	}
}

func TestSSIM_SmallerThanWindow(t *testing.T) {
	a := []float64{10, 20, 30, 40}
	b := []float64{10, 20, 30, 40}
	if got := SSIM(a, b, 2, 2); got < 0.999 {
		t.Errorf("tiny identical planes: got %f, want ~1", got)
	}
}

func TestEvaluateQuality_IdenticalImages(t *testing.T) {
	img := checkerboard(64, 64, 4, 60, 180)
	region := geometry.Region{X: 20, Y: 20, Width: 16, Height: 16}

	whole, reg, err := EvaluateQuality(img, img.Clone(), region)
	if err != nil {
		t.Fatalf("EvaluateQuality: %v", err)
	}
	if whole.PSNR != psnrCeiling || reg.PSNR != psnrCeiling {
		t.Errorf("PSNR: whole %f region %f, want %f", whole.PSNR, reg.PSNR, psnrCeiling)
	}
	if whole.SSIM < 0.999 {
		t.Errorf("SSIM: got %f, want ~1", whole.SSIM)
	}
	if whole.VisualQuality < 0.999 {
		t.Errorf("visual quality: got %f, want ~1", whole.VisualQuality)
	}
}

func TestArtifactLevel(t *testing.T) {
	region := geometry.Region{X: 4, Y: 4, Width: 8, Height: 8}

	flat := raster.NewFilled(16, 16, 90, 90, 90)
	if got := artifactLevel(flat, region); got != 0 {
		t.Errorf("flat region: got %f, want 0", got)
	}

	// Period-1 stripes make every horizontal pair exceed the threshold.
	stripes := raster.New(16, 16)
	i := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(0)
			if x%2 == 0 {
				v = 200
			}
			stripes.Pix[i], stripes.Pix[i+1], stripes.Pix[i+2] = v, v, v
			i += raster.Channels
		}
	}
	if got := artifactLevel(stripes, region); got < 0.4 {
		t.Errorf("stripe region: got %f, want at least the horizontal pairs flagged", got)
	}
}
