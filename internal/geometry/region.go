// Package geometry provides the rectangle arithmetic shared by every stage
// of the inpainting pipeline.
//
// All pixel extraction in this repository is required to route through
// ClampToImage. Analysis stages repeatedly expand a caller-supplied region
// (context margin, noise margin, edge-detection margin) and an expanded
// rectangle that is used without re-clamping is exactly the defect class
// this package exists to prevent.
package geometry

// Region is an axis-aligned integer pixel rectangle.
//
// A valid Region satisfies X >= 0, Y >= 0, Width > 0, Height > 0 and fits
// inside the image it refers to. Validation happens once, at the engine
// boundary; downstream components trust the invariant.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size is an image extent in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether r is fully inside an image of the given size.
func (r Region) Valid(s Size) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.Width > 0 && r.Height > 0 &&
		r.X+r.Width <= s.Width && r.Y+r.Height <= s.Height
}

// CenterX returns the horizontal center of the region.
func (r Region) CenterX() int { return r.X + r.Width/2 }

// CenterY returns the vertical center of the region.
func (r Region) CenterY() int { return r.Y + r.Height/2 }

// Contains reports whether the pixel (x, y) lies inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// ClampToImage fits r into an image of the given size.
//
// Extents are shrunk against the image bounds first, then the origin is
// clamped to be non-negative. The returned ok is false when nothing of the
// region remains inside the image (zero or negative extent after clamping);
// in that case the returned Region must not be used.
func ClampToImage(r Region, s Size) (Region, bool) {
	// Negative origin eats into the extent before the origin moves.
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X+r.Width > s.Width {
		r.Width = s.Width - r.X
	}
	if r.Y+r.Height > s.Height {
		r.Height = s.Height - r.Y
	}
	if r.X >= s.Width || r.Y >= s.Height || r.Width <= 0 || r.Height <= 0 {
		return Region{}, false
	}
	return r, true
}

// Expand grows r symmetrically by margin pixels on every side. The result
// is unclamped; callers must pass it through ClampToImage before extracting
// pixels.
func Expand(r Region, margin int) Region {
	return Region{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// Clamp constrains an integer value to the range [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
