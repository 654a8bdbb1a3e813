package sampler

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// similarity weighting between the PSNR-derived score and the normalized
// cross-correlation score.
const (
	psnrWeight = 0.7
	nccWeight  = 0.3
	psnrCap    = 50.0 // dB treated as a perfect pixel match
)

// ComputePatchSimilarity scores how alike two equally sized patches are,
// in [0, 1]. The score combines a capped PSNR term (pixel fidelity) with a
// normalized cross-correlation term (structural agreement) at 0.7/0.3.
func ComputePatchSimilarity(a, b *Patch) float64 {
	if a == nil || b == nil || len(a.Pix.Pix) != len(b.Pix.Pix) || len(a.Pix.Pix) == 0 {
		return 0
	}

	va := make([]float64, len(a.Pix.Pix))
	vb := make([]float64, len(b.Pix.Pix))
	mse := 0.0
	for i := range a.Pix.Pix {
		va[i] = float64(a.Pix.Pix[i])
		vb[i] = float64(b.Pix.Pix[i])
		d := va[i] - vb[i]
		mse += d * d
	}
	mse /= float64(len(va))

	psnrScore := 1.0
	if mse > 0 {
		psnr := 10 * math.Log10(255*255/mse)
		psnrScore = math.Max(0, math.Min(psnr, psnrCap)) / psnrCap
	}

	// Correlation is undefined for flat vectors; treat a flat pair as
	// structurally neutral rather than identical.
	ncc := stat.Correlation(va, vb, nil)
	if math.IsNaN(ncc) {
		ncc = 0
	}
	nccScore := (ncc + 1) / 2

	return psnrWeight*psnrScore + nccWeight*nccScore
}
