// Package tracker assigns persistent identities to per-frame detections
// using greedy IoU association against each track's last bounding box.
//
// The match is deliberately greedy and input-order dependent: detections
// are processed in the order the detector emitted them, and each claims
// the best still-unclaimed track above the IoU threshold. This is not a
// globally optimal assignment, and downstream behavior depends on these
// semantics.
package tracker

import (
	"log/slog"
	"sort"

	"github.com/navsense/navsense/pkg/detection"
	"github.com/navsense/navsense/pkg/geometry"
)

// Track is the persistent state for one identity. A single record per
// id keeps box, position, velocity and age from drifting apart under
// insertion and eviction.
type Track struct {
	ID        int
	BBox      geometry.BBox
	Position  geometry.Vec3
	Velocity  geometry.Vec3
	LastFrame int
	Age       int // consecutive unmatched frames
}

// Tracked pairs an identity with the detection that refreshed it this
// frame, velocity filled in.
type Tracked struct {
	ID       int
	Object   detection.Object
	Velocity geometry.Vec3
}

// Tracker holds all live tracks. It is not safe for concurrent use;
// the pipeline calls it from a single goroutine.
type Tracker struct {
	tracks       map[int]*Track
	nextID       int
	iouThreshold float64
	maxAge       int
	logger       *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithIoUThreshold sets the minimum IoU for a detection to claim an
// existing track.
func WithIoUThreshold(threshold float64) Option {
	return func(t *Tracker) { t.iouThreshold = threshold }
}

// WithMaxAge sets how many consecutive unmatched frames a track
// survives before being purged.
func WithMaxAge(maxAge int) Option {
	return func(t *Tracker) { t.maxAge = maxAge }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger.With("component", "tracker") }
}

// New creates a tracker with the default 0.3 IoU threshold and a
// 30-frame max age.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		tracks:       make(map[int]*Track),
		iouThreshold: 0.3,
		maxAge:       30,
		logger:       slog.Default().With("component", "tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Assign matches detections to existing tracks in input order, minting
// new ids where nothing qualifies, and returns one Tracked per
// detection. Ids are a monotonically increasing counter and are never
// reused. Existing tracks left unclaimed this frame age by one; tracks
// older than the max age are purged.
func (t *Tracker) Assign(objects []detection.Object, frame int) []Tracked {
	assigned := make([]Tracked, 0, len(objects))
	claimed := make(map[int]bool, len(objects))

	for _, obj := range objects {
		id, matched := t.bestMatch(obj.BBox, claimed)
		if !matched {
			id = t.nextID
			t.nextID++
			t.tracks[id] = &Track{ID: id, LastFrame: frame}
			t.logger.Debug("new track", "id", id, "class", obj.Class, "frame", frame)
		}
		claimed[id] = true

		track := t.tracks[id]
		velocity := geometry.Vec3{}
		if matched {
			dt := frame - track.LastFrame
			if dt < 1 {
				dt = 1
			}
			velocity = obj.Position.Sub(track.Position).Scale(1 / float64(dt))
		}

		track.BBox = obj.BBox
		track.Position = obj.Position
		track.Velocity = velocity
		track.LastFrame = frame
		track.Age = 0

		assigned = append(assigned, Tracked{ID: id, Object: obj, Velocity: velocity})
	}

	t.ageAndPurge(claimed)
	return assigned
}

// bestMatch returns the unclaimed track with the highest IoU above the
// threshold against the given box.
func (t *Tracker) bestMatch(box geometry.BBox, claimed map[int]bool) (int, bool) {
	bestID := -1
	bestIoU := t.iouThreshold

	// Candidate order must be deterministic: map iteration order would
	// make near-tie matches vary run to run.
	for _, id := range t.sortedIDs() {
		if claimed[id] {
			continue
		}
		score := geometry.IoU(box, t.tracks[id].BBox)
		if score > bestIoU {
			bestID = id
			bestIoU = score
		}
	}
	if bestID < 0 {
		return 0, false
	}
	return bestID, true
}

func (t *Tracker) ageAndPurge(claimed map[int]bool) {
	for id, track := range t.tracks {
		if claimed[id] {
			continue
		}
		track.Age++
		if track.Age > t.maxAge {
			delete(t.tracks, id)
			t.logger.Debug("track expired", "id", id, "age", track.Age)
		}
	}
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	return len(t.tracks)
}

// Snapshot returns copies of all live tracks, ascending by id.
func (t *Tracker) Snapshot() []Track {
	out := make([]Track, 0, len(t.tracks))
	for _, id := range t.sortedIDs() {
		out = append(out, *t.tracks[id])
	}
	return out
}

func (t *Tracker) sortedIDs() []int {
	ids := make([]int, 0, len(t.tracks))
	for id := range t.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
