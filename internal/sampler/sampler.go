// Package sampler collects candidate content patches from the
// surroundings of a target region and blends the best matches.
//
// Patches are fixed-size 16x16 pixel blocks gathered by walking outward
// from the region center in 8 compass directions. Ranking happens against
// a synthetic flat mid-gray reference patch: a deliberately weak prior
// whose main effect is breaking ties toward the region's nearer
// surroundings. Ordering is fully deterministic, so repeated runs over the
// same input produce byte-identical blends.
package sampler

import (
	"math"
	"sort"

	"github.com/pixelmend/inpaint/internal/geometry"
	"github.com/pixelmend/inpaint/internal/raster"
)

const (
	// PatchSize is the fixed edge length of sampled patches.
	PatchSize = 16

	// MaxPerDirection caps the patches gathered along one compass walk.
	MaxPerDirection = 20

	// ReferenceGray is the fill value of the synthetic ranking reference.
	ReferenceGray = 128
)

// Direction indexes the 8 compass directions, clockwise from north.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	numDirections
)

var directionVectors = [numDirections][2]float64{
	{0, -1}, {0.7071, -0.7071}, {1, 0}, {0.7071, 0.7071},
	{0, 1}, {-0.7071, 0.7071}, {-1, 0}, {-0.7071, -0.7071},
}

func (d Direction) String() string {
	return [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}[d]
}

// Patch is a sampled pixel block, its source position, and the similarity
// score assigned during ranking.
type Patch struct {
	Pix        *raster.Image
	X, Y       int     // source position (top-left) in the image
	Similarity float64 // assigned by SelectBestPatches, 0 until ranked
	order      int     // gather sequence, the deterministic tie-break
}

// DirectionalSamples maps each compass direction to its ordered patch walk.
type DirectionalSamples map[Direction][]*Patch

// Count returns the total number of patches across all directions.
func (s DirectionalSamples) Count() int {
	n := 0
	for _, patches := range s {
		n += len(patches)
	}
	return n
}

// Flatten returns all patches in deterministic (direction, step) order.
func (s DirectionalSamples) Flatten() []*Patch {
	out := make([]*Patch, 0, s.Count())
	for d := Direction(0); d < numDirections; d++ {
		out = append(out, s[d]...)
	}
	return out
}

// SampleSurroundingContent walks outward from the region's center in 8
// directions, extracting patches every half patch up to radius, with small
// lateral offsets perpendicular to the walk. Patches overlapping the
// target region or leaving the image are skipped; at most 20 patches are
// kept per direction.
func SampleSurroundingContent(img *raster.Image, region geometry.Region, radius int) DirectionalSamples {
	samples := make(DirectionalSamples, numDirections)
	size := img.Size()
	cx := float64(region.CenterX())
	cy := float64(region.CenterY())

	// Start past the region itself; its content is what we are replacing.
	start := math.Hypot(float64(region.Width), float64(region.Height))/2 + PatchSize/2
	step := float64(PatchSize) / 2
	lateral := [3]float64{0, -float64(PatchSize) / 2, float64(PatchSize) / 2}

	order := 0
	for d := Direction(0); d < numDirections; d++ {
		dir := directionVectors[d]
		perpX, perpY := -dir[1], dir[0]
		var walk []*Patch

		for dist := start; dist <= start+float64(radius) && len(walk) < MaxPerDirection; dist += step {
			for _, off := range lateral {
				if len(walk) >= MaxPerDirection {
					break
				}
				px := int(cx+dir[0]*dist+perpX*off) - PatchSize/2
				py := int(cy+dir[1]*dist+perpY*off) - PatchSize/2
				r := geometry.Region{X: px, Y: py, Width: PatchSize, Height: PatchSize}
				if !r.Valid(size) {
					continue
				}
				if overlaps(r, region) {
					continue
				}
				pix, err := img.Extract(r)
				if err != nil {
					continue
				}
				walk = append(walk, &Patch{Pix: pix, X: px, Y: py, order: order})
				order++
			}
		}
		if len(walk) > 0 {
			samples[d] = walk
		}
	}
	return samples
}

func overlaps(a, b geometry.Region) bool {
	return a.X < b.X+b.Width && a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height && a.Y+a.Height > b.Y
}

// ReferencePatch builds the synthetic flat mid-gray ranking reference.
func ReferencePatch() *Patch {
	return &Patch{Pix: raster.NewFilled(PatchSize, PatchSize, ReferenceGray, ReferenceGray, ReferenceGray)}
}

// SelectBestPatches ranks patches by similarity to the reference and
// returns the top k together with adaptive blend weights: similarities are
// min-max normalized, exponentiated with exp(3*n), then renormalized to
// sum to 1, which sharply favors the best matches.
func SelectBestPatches(patches []*Patch, reference *Patch, k int) ([]*Patch, []float64) {
	if len(patches) == 0 || k <= 0 {
		return nil, nil
	}
	ranked := make([]*Patch, len(patches))
	copy(ranked, patches)
	for _, p := range ranked {
		p.Similarity = ComputePatchSimilarity(p, reference)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return ranked[i].order < ranked[j].order
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	ranked = ranked[:k]

	minSim, maxSim := ranked[k-1].Similarity, ranked[0].Similarity
	weights := make([]float64, k)
	sum := 0.0
	for i, p := range ranked {
		n := 1.0
		if maxSim > minSim {
			n = (p.Similarity - minSim) / (maxSim - minSim)
		}
		weights[i] = math.Exp(3 * n)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return ranked, weights
}

// WeightAndBlendPatches produces the weighted pixel-wise average of the
// given patches. Weights must sum to 1 and match the patch count.
func WeightAndBlendPatches(patches []*Patch, weights []float64) *raster.Image {
	out := raster.New(PatchSize, PatchSize)
	if len(patches) == 0 {
		return out
	}
	acc := make([]float64, len(out.Pix))
	for i, p := range patches {
		w := weights[i]
		for j, v := range p.Pix.Pix {
			acc[j] += w * float64(v)
		}
	}
	for j, v := range acc {
		out.Pix[j] = raster.ClampByte(v)
	}
	return out
}
