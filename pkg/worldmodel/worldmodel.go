// Package worldmodel maintains the time-windowed belief state of all
// currently-relevant tracked objects.
package worldmodel

import (
	"sync"
	"time"

	"github.com/navsense/navsense/pkg/geometry"
	"github.com/navsense/navsense/pkg/tracker"
)

// Entry is the last-known state of one tracked object, keyed by its
// track id.
type Entry struct {
	Class    string
	Position geometry.Vec3
	Velocity geometry.Vec3
	LastSeen time.Time
}

// WorldModel maps track ids to their last-known state. Entries are
// refreshed every time a track reports in and pruned once they have not
// been refreshed for the keep window of wall-clock time, so eviction is
// independent of the detection rate.
type WorldModel struct {
	mu      sync.RWMutex
	entries map[int]Entry
	keep    time.Duration
	now     func() time.Time
}

// Option configures a WorldModel.
type Option func(*WorldModel)

// WithKeepDuration sets the wall-clock window an entry survives without
// being refreshed.
func WithKeepDuration(keep time.Duration) Option {
	return func(w *WorldModel) { w.keep = keep }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *WorldModel) { w.now = now }
}

// New creates a world model with the default 5-second keep window.
func New(opts ...Option) *WorldModel {
	w := &WorldModel{
		entries: make(map[int]Entry),
		keep:    5 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Update upserts an entry for every tracked object with the current
// wall-clock time, then prunes everything older than the keep window.
// An entry never outlives the window regardless of tracker state.
func (w *WorldModel) Update(tracked []tracker.Tracked) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	for _, tr := range tracked {
		w.entries[tr.ID] = Entry{
			Class:    tr.Object.Class,
			Position: tr.Object.Position,
			Velocity: tr.Velocity,
			LastSeen: now,
		}
	}

	for id, entry := range w.entries {
		if now.Sub(entry.LastSeen) > w.keep {
			delete(w.entries, id)
		}
	}
}

// Snapshot returns a copy of the current id-to-entry mapping for
// downstream readers.
func (w *WorldModel) Snapshot() map[int]Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[int]Entry, len(w.entries))
	for id, entry := range w.entries {
		out[id] = entry
	}
	return out
}

// Len returns the number of live entries.
func (w *WorldModel) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}

// Clear removes all entries.
func (w *WorldModel) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = make(map[int]Entry)
}
