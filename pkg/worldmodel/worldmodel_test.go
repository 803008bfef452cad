package worldmodel

import (
	"testing"
	"time"

	"github.com/navsense/navsense/pkg/detection"
	"github.com/navsense/navsense/pkg/geometry"
	"github.com/navsense/navsense/pkg/tracker"
)

func tracked(id int, class string, pos geometry.Vec3) tracker.Tracked {
	return tracker.Tracked{
		ID:     id,
		Object: detection.Object{Detection: detection.Detection{Class: class}, Position: pos},
	}
}

func TestUpdate_Upsert(t *testing.T) {
	w := New()

	w.Update([]tracker.Tracked{tracked(0, "person", geometry.Vec3{Z: 2})})

	snap := w.Snapshot()
	entry, ok := snap[0]
	if !ok {
		t.Fatal("expected entry for id 0")
	}
	if entry.Class != "person" {
		t.Errorf("class: got %q, want person", entry.Class)
	}

	// Refreshing overwrites class and position.
	w.Update([]tracker.Tracked{tracked(0, "person", geometry.Vec3{Z: 1.5})})
	if got := w.Snapshot()[0].Position.Z; got != 1.5 {
		t.Errorf("position after refresh: got %v, want 1.5", got)
	}
}

func TestUpdate_WallClockEviction(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	w := New(WithKeepDuration(5*time.Second), WithClock(clock))

	w.Update([]tracker.Tracked{tracked(0, "person", geometry.Vec3{})})

	// Within the window: entry survives updates that don't refresh it.
	now = now.Add(4 * time.Second)
	w.Update(nil)
	if w.Len() != 1 {
		t.Fatalf("entry evicted early, %d entries", w.Len())
	}

	// Past the window: gone, even though the tracker may still hold it.
	now = now.Add(2 * time.Second)
	w.Update(nil)
	if w.Len() != 0 {
		t.Errorf("stale entry survived, %d entries", w.Len())
	}
}

func TestUpdate_RefreshExtendsLifetime(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	w := New(WithKeepDuration(5*time.Second), WithClock(clock))

	w.Update([]tracker.Tracked{tracked(0, "car", geometry.Vec3{})})

	for i := 0; i < 4; i++ {
		now = now.Add(3 * time.Second)
		w.Update([]tracker.Tracked{tracked(0, "car", geometry.Vec3{})})
	}

	if w.Len() != 1 {
		t.Errorf("refreshed entry evicted, %d entries", w.Len())
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	w := New()
	w.Update([]tracker.Tracked{tracked(0, "person", geometry.Vec3{})})

	snap := w.Snapshot()
	delete(snap, 0)

	if w.Len() != 1 {
		t.Error("mutating a snapshot reached the world model")
	}
}
