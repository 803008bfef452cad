// Package detection defines the boundary to the external detector and
// depth-estimator collaborators. The pipeline consumes their per-frame
// output through the Source interface; inference itself lives outside
// this module.
package detection

import (
	"context"
	"errors"

	"github.com/navsense/navsense/pkg/geometry"
)

// ErrSourceClosed is returned by Next after a source has been closed
// or its script is exhausted.
var ErrSourceClosed = errors.New("detection: source closed")

// Detection is one raw detector output: a pixel-space box and a class
// label. Produced fresh every frame, never persisted.
type Detection struct {
	BBox  geometry.BBox
	Class string
}

// Object is a detection enriched with its projected 3D position.
type Object struct {
	Detection
	Position geometry.Vec3
}

// DepthMap is a dense per-pixel metric depth grid aligned to the
// detector's frame. Values are roughly in [0.5, 10.0] meters.
type DepthMap struct {
	Width, Height int
	Values        []float64 // row-major, len == Width*Height
}

// NewDepthMap allocates a depth map of the given size.
func NewDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

// Fill sets every sample to the given depth.
func (d *DepthMap) Fill(depth float64) {
	for i := range d.Values {
		d.Values[i] = depth
	}
}

// Set writes one sample. Out-of-range coordinates are ignored.
func (d *DepthMap) Set(x, y int, depth float64) {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return
	}
	d.Values[y*d.Width+x] = depth
}

// At returns the depth at (x, y), clamping coordinates to the grid the
// same way the projection step expects.
func (d *DepthMap) At(x, y int) float64 {
	x = clamp(x, 0, d.Width-1)
	y = clamp(y, 0, d.Height-1)
	return d.Values[y*d.Width+x]
}

// Bounds returns the grid dimensions.
func (d *DepthMap) Bounds() (int, int) {
	return d.Width, d.Height
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Verify DepthMap satisfies the projection sampler at compile time.
var _ geometry.DepthSampler = (*DepthMap)(nil)

// Frame is one frame's worth of collaborator output. Depth is nil when
// the estimator has not produced a map for this frame yet; the pipeline
// skips such frames entirely.
type Frame struct {
	Index      int
	Detections []Detection
	Depth      *DepthMap
}

// Source supplies frames from the external detector/depth collaborators.
type Source interface {
	// Next blocks until the next frame is available or ctx is done.
	Next(ctx context.Context) (Frame, error)

	// Close releases the underlying capture resources.
	Close() error
}
