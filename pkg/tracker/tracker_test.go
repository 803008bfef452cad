package tracker

import (
	"testing"

	"github.com/navsense/navsense/pkg/detection"
	"github.com/navsense/navsense/pkg/geometry"
)

func obj(class string, box geometry.BBox, pos geometry.Vec3) detection.Object {
	return detection.Object{
		Detection: detection.Detection{BBox: box, Class: class},
		Position:  pos,
	}
}

func TestAssign_FirstDetectionGetsIDZero(t *testing.T) {
	tr := New()

	out := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{Z: 2}),
	}, 1)

	if len(out) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(out))
	}
	if out[0].ID != 0 {
		t.Errorf("first id: got %d, want 0", out[0].ID)
	}
	if out[0].Velocity != (geometry.Vec3{}) {
		t.Errorf("new track velocity: got %+v, want zero", out[0].Velocity)
	}
}

func TestAssign_DistinctIDsSameFrame(t *testing.T) {
	tr := New()

	out := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{}),
		obj("car", geometry.BBox{X1: 100, Y1: 100, X2: 150, Y2: 150}, geometry.Vec3{}),
	}, 1)

	if out[0].ID == out[1].ID {
		t.Errorf("non-overlapping detections share id %d", out[0].ID)
	}
}

func TestAssign_RetainsIDAcrossFrames(t *testing.T) {
	tr := New()

	first := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{Z: 3}),
	}, 1)

	// Shifted by 1px: IoU well above the 0.3 threshold.
	second := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 1, Y1: 0, X2: 11, Y2: 10}, geometry.Vec3{Z: 2.5}),
	}, 2)

	if second[0].ID != first[0].ID {
		t.Errorf("id not retained: got %d, want %d", second[0].ID, first[0].ID)
	}
}

func TestAssign_VelocityFromPositionDelta(t *testing.T) {
	tr := New()

	tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{Z: 4}),
	}, 1)

	// Seen again 2 frames later, 1m closer: vz = -0.5 per frame.
	out := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{Z: 3}),
	}, 3)

	if got := out[0].Velocity.Z; got != -0.5 {
		t.Errorf("velocity z: got %v, want -0.5", got)
	}
}

func TestAssign_MaxAgeExpiry(t *testing.T) {
	tr := New(WithMaxAge(3))

	tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{}),
	}, 1)

	// Unmatched frames age the track; past max age it is purged.
	for frame := 2; frame <= 6; frame++ {
		tr.Assign(nil, frame)
	}

	if tr.Len() != 0 {
		t.Errorf("expired track still present, %d tracks live", tr.Len())
	}

	// A new detection in the old spot must mint a fresh id, never reuse.
	out := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{}),
	}, 7)
	if out[0].ID != 1 {
		t.Errorf("id after expiry: got %d, want 1 (ids never reused)", out[0].ID)
	}
}

func TestAssign_GreedyFirstMatchWins(t *testing.T) {
	tr := New()

	// One existing track.
	tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{}),
	}, 1)

	// Two detections both overlapping it; the earlier one in input
	// order claims the track, the second mints a new id.
	out := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 1, Y1: 1, X2: 11, Y2: 11}, geometry.Vec3{}),
		obj("person", geometry.BBox{X1: 2, Y1: 2, X2: 12, Y2: 12}, geometry.Vec3{}),
	}, 2)

	if out[0].ID != 0 {
		t.Errorf("first detection should claim track 0, got %d", out[0].ID)
	}
	if out[1].ID != 1 {
		t.Errorf("second detection should mint id 1, got %d", out[1].ID)
	}
}

func TestAssign_BelowThresholdMintsNewID(t *testing.T) {
	tr := New()

	tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, geometry.Vec3{}),
	}, 1)

	// Barely overlapping: IoU far below 0.3.
	out := tr.Assign([]detection.Object{
		obj("person", geometry.BBox{X1: 9, Y1: 9, X2: 19, Y2: 19}, geometry.Vec3{}),
	}, 2)

	if out[0].ID != 1 {
		t.Errorf("low-overlap detection should mint id 1, got %d", out[0].ID)
	}
}
