package detection

import (
	"context"

	"github.com/navsense/navsense/pkg/geometry"
)

// Actor is one scripted object in a simulated scene. The box drifts by
// (DX, DY) pixels per frame and the depth under it by DDepth meters per
// frame, between the Appear and Vanish frame indices.
type Actor struct {
	Class  string
	Start  geometry.BBox
	DX, DY float64
	Depth  float64
	DDepth float64
	Appear int
	Vanish int // 0 means never
}

// SimSource replays a deterministic scripted scene. It stands in for
// the out-of-scope detector and depth-estimator collaborators in the
// demo command and in tests.
type SimSource struct {
	width, height int
	background    float64
	depthEvery    int // recompute depth every N frames; earlier frames carry nil
	maxFrames     int
	actors        []Actor

	frame  int
	depth  *DepthMap
	closed bool
}

// SimOption configures a SimSource.
type SimOption func(*SimSource)

// WithFrameSize sets the simulated frame resolution.
func WithFrameSize(width, height int) SimOption {
	return func(s *SimSource) {
		s.width = width
		s.height = height
	}
}

// WithMaxFrames bounds the number of frames the source will produce.
// Zero means unbounded.
func WithMaxFrames(n int) SimOption {
	return func(s *SimSource) { s.maxFrames = n }
}

// WithDepthEvery sets how often a fresh depth map is produced.
func WithDepthEvery(n int) SimOption {
	return func(s *SimSource) {
		if n > 0 {
			s.depthEvery = n
		}
	}
}

// WithActors replaces the default scene.
func WithActors(actors ...Actor) SimOption {
	return func(s *SimSource) { s.actors = actors }
}

// NewSimSource creates a simulated source. The default scene holds an
// approaching car, a person crossing left to right, and a static bench.
func NewSimSource(opts ...SimOption) *SimSource {
	s := &SimSource{
		width:      224,
		height:     224,
		background: 8.0,
		depthEvery: 3,
		actors:     defaultScene(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultScene() []Actor {
	return []Actor{
		{Class: "car", Start: geometry.BBox{X1: 95, Y1: 80, X2: 135, Y2: 120}, Depth: 6.0, DDepth: -0.04},
		{Class: "person", Start: geometry.BBox{X1: 10, Y1: 90, X2: 30, Y2: 140}, DX: 1.5, Depth: 2.5},
		{Class: "bench", Start: geometry.BBox{X1: 100, Y1: 150, X2: 140, Y2: 180}, Depth: 2.2},
	}
}

// Next returns the next scripted frame. The first frames before a depth
// pass carry a nil depth map, matching a depth estimator that has not
// produced output yet.
func (s *SimSource) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	default:
	}
	if s.closed || (s.maxFrames > 0 && s.frame >= s.maxFrames) {
		return Frame{}, ErrSourceClosed
	}

	s.frame++
	frame := Frame{Index: s.frame}

	if s.frame%s.depthEvery == 0 {
		s.depth = s.renderDepth()
	}
	frame.Depth = s.depth

	for _, a := range s.actors {
		if s.frame < a.Appear || (a.Vanish > 0 && s.frame >= a.Vanish) {
			continue
		}
		frame.Detections = append(frame.Detections, Detection{
			BBox:  s.actorBox(a),
			Class: a.Class,
		})
	}
	return frame, nil
}

// Close stops the source; subsequent Next calls return ErrSourceClosed.
func (s *SimSource) Close() error {
	s.closed = true
	return nil
}

func (s *SimSource) actorBox(a Actor) geometry.BBox {
	elapsed := float64(s.frame - a.Appear)
	return geometry.BBox{
		X1: a.Start.X1 + a.DX*elapsed,
		Y1: a.Start.Y1 + a.DY*elapsed,
		X2: a.Start.X2 + a.DX*elapsed,
		Y2: a.Start.Y2 + a.DY*elapsed,
	}
}

func (s *SimSource) actorDepth(a Actor) float64 {
	d := a.Depth + a.DDepth*float64(s.frame-a.Appear)
	if d < 0.5 {
		d = 0.5
	}
	return d
}

func (s *SimSource) renderDepth() *DepthMap {
	m := NewDepthMap(s.width, s.height)
	m.Fill(s.background)
	for _, a := range s.actors {
		if s.frame < a.Appear || (a.Vanish > 0 && s.frame >= a.Vanish) {
			continue
		}
		box := s.actorBox(a)
		depth := s.actorDepth(a)
		for y := int(box.Y1); y < int(box.Y2); y++ {
			for x := int(box.X1); x < int(box.X2); x++ {
				m.Set(x, y, depth)
			}
		}
	}
	return m
}

// Verify SimSource implements Source at compile time.
var _ Source = (*SimSource)(nil)
