// Package geometry provides the bounding-box and projection math shared
// by the tracker and the world model.
package geometry

import "math"

// Vec3 is a position or velocity in camera space, meters.
// X is lateral (right positive), Y vertical, Z forward depth.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// BBox is an axis-aligned bounding box in pixel coordinates,
// (X1,Y1) top-left and (X2,Y2) bottom-right.
type BBox struct {
	X1, Y1, X2, Y2 float64
}

// Width returns the box width, clamped at zero for inverted boxes.
func (b BBox) Width() float64 {
	return math.Max(0, b.X2-b.X1)
}

// Height returns the box height, clamped at zero for inverted boxes.
func (b BBox) Height() float64 {
	return math.Max(0, b.Y2-b.Y1)
}

// Area returns the box area.
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// CenterPixel returns the integer pixel at the box center.
func (b BBox) CenterPixel() (int, int) {
	return int((b.X1 + b.X2) / 2), int((b.Y1 + b.Y2) / 2)
}

// IoU returns the intersection-over-union of two boxes.
// Disjoint boxes score 0; a degenerate pair with zero-area union also
// scores 0 rather than dividing by zero.
func IoU(a, b BBox) float64 {
	ix1 := math.Max(a.X1, b.X1)
	iy1 := math.Max(a.Y1, b.Y1)
	ix2 := math.Min(a.X2, b.X2)
	iy2 := math.Min(a.Y2, b.Y2)

	inter := math.Max(0, ix2-ix1) * math.Max(0, iy2-iy1)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Intrinsics holds the pinhole camera parameters used for projection.
type Intrinsics struct {
	Fx, Fy float64 // focal lengths, pixels
	Cx, Cy float64 // principal point, pixels
}

// DepthSampler supplies a metric depth value for a pixel.
type DepthSampler interface {
	At(x, y int) float64

	// Bounds returns the width and height of the sampled grid.
	Bounds() (width, height int)
}

// Project converts a detection's bounding box into a 3D camera-space
// position by sampling depth at the box center. The center pixel is
// clamped to the sampler's bounds before both the depth lookup and the
// X/Y terms, so a box hanging off the frame edge projects from the
// nearest valid pixel rather than extrapolating past it.
func Project(b BBox, depth DepthSampler, in Intrinsics) Vec3 {
	u, v := b.CenterPixel()
	w, h := depth.Bounds()
	u = clampPixel(u, w)
	v = clampPixel(v, h)
	z := depth.At(u, v)
	return Vec3{
		X: (float64(u) - in.Cx) * z / in.Fx,
		Y: (float64(v) - in.Cy) * z / in.Fy,
		Z: z,
	}
}

func clampPixel(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
