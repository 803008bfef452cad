// Package pipeline wires the per-frame perception stages to the
// narration cadence: project detections to 3D, assign track identities,
// fold tracks into the world model, and every NarrationInterval frames
// rank, analyze, phrase and hand off to the speech scheduler.
package pipeline

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/navsense/navsense/internal/metrics"
	"github.com/navsense/navsense/pkg/detection"
	"github.com/navsense/navsense/pkg/geometry"
	"github.com/navsense/navsense/pkg/narration"
	"github.com/navsense/navsense/pkg/priority"
	"github.com/navsense/navsense/pkg/situation"
	"github.com/navsense/navsense/pkg/tracker"
	"github.com/navsense/navsense/pkg/worldmodel"
)

// Speaker is the narration sink. The pipeline never blocks on it.
type Speaker interface {
	// Speak queues a phrase; returns whether it was accepted.
	Speak(text string, force bool) bool
	// Stop shuts the speaker down and reports phrases spoken.
	Stop() uint64
}

// Defaults matching roughly 1.5s of narration cadence at 30fps.
const (
	defaultNarrationInterval = 45
	defaultTopN              = 5
)

// defaultIntrinsics approximates a 640x480 webcam.
var defaultIntrinsics = geometry.Intrinsics{Fx: 525, Fy: 525, Cx: 320, Cy: 240}

// Status is a point-in-time view of the pipeline for the status server.
type Status struct {
	FramesProcessed uint64            `json:"frames_processed"`
	FramesSkipped   uint64            `json:"frames_skipped"`
	ActiveTracks    int               `json:"active_tracks"`
	WorldEntries    int               `json:"world_entries"`
	Narrations      uint64            `json:"narrations"`
	LastNarration   string            `json:"last_narration"`
	TopRanked       []priority.Ranked `json:"top_ranked"`
}

// Pipeline runs the perception stages for a single detection source.
// ProcessFrame is synchronous and must be called from one goroutine;
// status accessors are safe from any goroutine.
type Pipeline struct {
	tracker    *tracker.Tracker
	world      *worldmodel.WorldModel
	speaker    Speaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	intrinsics geometry.Intrinsics
	interval   int
	topN       int

	frames  atomic.Uint64
	skipped atomic.Uint64
	narrs   atomic.Uint64

	// Guarded by mu; the tracker itself is not safe for concurrent
	// access, so Status reads these cached counts instead.
	mu      sync.RWMutex
	tracks  int
	entries int
	last    string
	ranked  []priority.Ranked
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNarrationInterval sets how many processed frames pass between
// narrations.
func WithNarrationInterval(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.interval = n
		}
	}
}

// WithTopN sets how many ranked objects are retained for status.
func WithTopN(n int) Option {
	return func(p *Pipeline) { p.topN = n }
}

// WithIntrinsics sets the camera model used for 3D projection.
func WithIntrinsics(in geometry.Intrinsics) Option {
	return func(p *Pipeline) { p.intrinsics = in }
}

// WithTracker replaces the default tracker.
func WithTracker(t *tracker.Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// WithWorldModel replaces the default world model.
func WithWorldModel(w *worldmodel.WorldModel) Option {
	return func(p *Pipeline) { p.world = w }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger.With("component", "pipeline") }
}

// WithMetrics attaches prometheus-backed counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a pipeline feeding the given speaker.
func New(speaker Speaker, opts ...Option) *Pipeline {
	p := &Pipeline{
		tracker:    tracker.New(),
		world:      worldmodel.New(),
		speaker:    speaker,
		logger:     slog.Default().With("component", "pipeline"),
		intrinsics: defaultIntrinsics,
		interval:   defaultNarrationInterval,
		topN:       defaultTopN,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessFrame runs one frame through the perception stages. Frames
// without a depth map are skipped: identity assignment without depth
// would poison track velocities.
func (p *Pipeline) ProcessFrame(frame detection.Frame) {
	if frame.Depth == nil {
		p.skipped.Add(1)
		if p.metrics != nil {
			p.metrics.FramesSkipped.Add(1)
		}
		p.logger.Debug("skipping frame without depth", "frame", frame.Index)
		return
	}

	objects := make([]detection.Object, 0, len(frame.Detections))
	for _, d := range frame.Detections {
		objects = append(objects, detection.Object{
			Detection: d,
			Position:  geometry.Project(d.BBox, frame.Depth, p.intrinsics),
		})
	}

	tracked := p.tracker.Assign(objects, frame.Index)
	p.world.Update(tracked)

	tracks, entries := p.tracker.Len(), p.world.Len()
	p.mu.Lock()
	p.tracks, p.entries = tracks, entries
	p.mu.Unlock()

	frames := p.frames.Add(1)
	if p.metrics != nil {
		p.metrics.FramesProcessed.Add(1)
		p.metrics.ActiveTracks.Store(uint64(tracks))
		p.metrics.WorldEntries.Store(uint64(entries))
	}

	if frames%uint64(p.interval) == 0 {
		p.narrate(frames)
	}
}

// narrate ranks and analyzes the current world belief and queues one
// phrase on the speaker.
func (p *Pipeline) narrate(frames uint64) {
	snapshot := p.world.Snapshot()
	ranked := priority.Rank(snapshot, p.topN)
	report := situation.Analyze(snapshot)
	text := narration.Generate(report)

	accepted := p.speaker.Speak(text, false)

	p.narrs.Add(1)
	p.mu.Lock()
	p.last = text
	p.ranked = ranked
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.NarrationsGenerated.Add(1)
	}

	p.logger.Info("narration generated",
		"frame", frames,
		"text", text,
		"path", report.PathStatus,
		"accepted", accepted)
}

// Snapshot returns a copy of the current world model state.
func (p *Pipeline) Snapshot() map[int]worldmodel.Entry {
	return p.world.Snapshot()
}

// Status reports pipeline progress for the status server.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ranked := make([]priority.Ranked, len(p.ranked))
	copy(ranked, p.ranked)
	return Status{
		FramesProcessed: p.frames.Load(),
		FramesSkipped:   p.skipped.Load(),
		ActiveTracks:    p.tracks,
		WorldEntries:    p.entries,
		Narrations:      p.narrs.Load(),
		LastNarration:   p.last,
		TopRanked:       ranked,
	}
}

// Close stops the speaker, which interrupts playback and deletes the
// audio cache.
func (p *Pipeline) Close() {
	spoken := p.speaker.Stop()
	p.logger.Info("pipeline closed", "frames", p.frames.Load(), "phrases_spoken", spoken)
}
