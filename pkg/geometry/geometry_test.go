package geometry

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestIoU_Symmetric(t *testing.T) {
	a := BBox{0, 0, 10, 10}
	b := BBox{5, 5, 15, 15}

	if !floatEquals(IoU(a, b), IoU(b, a)) {
		t.Errorf("IoU not symmetric: %v vs %v", IoU(a, b), IoU(b, a))
	}
}

func TestIoU_Identity(t *testing.T) {
	b := BBox{2, 3, 8, 9}
	if got := IoU(b, b); !floatEquals(got, 1.0) {
		t.Errorf("IoU(b, b): got %v, want 1.0", got)
	}
}

func TestIoU_Disjoint(t *testing.T) {
	a := BBox{0, 0, 10, 10}
	b := BBox{20, 20, 30, 30}
	if got := IoU(a, b); got != 0 {
		t.Errorf("IoU of disjoint boxes: got %v, want 0", got)
	}
}

func TestIoU_DegenerateUnion(t *testing.T) {
	// Two zero-area boxes: union is zero, IoU is defined as 0.
	a := BBox{5, 5, 5, 5}
	b := BBox{5, 5, 5, 5}
	if got := IoU(a, b); got != 0 {
		t.Errorf("IoU of degenerate boxes: got %v, want 0", got)
	}
}

func TestIoU_PartialOverlap(t *testing.T) {
	a := BBox{0, 0, 10, 10}
	b := BBox{5, 0, 15, 10}
	// Intersection 50, union 150.
	if got := IoU(a, b); !floatEquals(got, 50.0/150.0) {
		t.Errorf("partial overlap: got %v, want %v", got, 50.0/150.0)
	}
}

type flatDepth struct {
	depth         float64
	width, height int
}

func (d flatDepth) At(x, y int) float64 { return d.depth }
func (d flatDepth) Bounds() (int, int)  { return d.width, d.height }

func TestProject_CenterPixel(t *testing.T) {
	in := Intrinsics{Fx: 224, Fy: 224, Cx: 112, Cy: 112}
	depth := func(z float64) flatDepth { return flatDepth{z, 640, 480} }

	// Box centered on the principal point projects to (0, 0, z).
	pos := Project(BBox{110, 110, 114, 114}, depth(2.0), in)
	if !floatEquals(pos.X, 0) || !floatEquals(pos.Y, 0) || !floatEquals(pos.Z, 2.0) {
		t.Errorf("centered box: got %+v, want (0, 0, 2)", pos)
	}

	// Box centered one focal length right of center: X == Z.
	pos = Project(BBox{334, 110, 338, 114}, depth(3.0), in)
	if !floatEquals(pos.X, 3.0) {
		t.Errorf("offset box X: got %v, want 3.0", pos.X)
	}
	if !floatEquals(pos.Z, 3.0) {
		t.Errorf("offset box Z: got %v, want 3.0", pos.Z)
	}
}

func TestProject_ClampsCenterToBounds(t *testing.T) {
	in := Intrinsics{Fx: 100, Fy: 100, Cx: 0, Cy: 0}

	// Box center (20, 20) lies outside the 10x10 grid; both the depth
	// sample and the X/Y terms must use the clamped pixel (9, 9).
	pos := Project(BBox{18, 18, 22, 22}, flatDepth{2.0, 10, 10}, in)
	if !floatEquals(pos.X, 9*2.0/100) {
		t.Errorf("clamped X: got %v, want %v", pos.X, 9*2.0/100)
	}
	if !floatEquals(pos.Y, 9*2.0/100) {
		t.Errorf("clamped Y: got %v, want %v", pos.Y, 9*2.0/100)
	}

	// Negative-side overflow clamps to pixel zero.
	pos = Project(BBox{-30, -30, -10, -10}, flatDepth{2.0, 10, 10}, in)
	if !floatEquals(pos.X, 0) || !floatEquals(pos.Y, 0) {
		t.Errorf("negative clamp: got %+v, want X=Y=0", pos)
	}
}

func TestVec3_Norm(t *testing.T) {
	v := Vec3{3, 4, 0}
	if !floatEquals(v.Norm(), 5) {
		t.Errorf("Norm: got %v, want 5", v.Norm())
	}
}

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{0.5, 1, 1.5}

	if got := a.Sub(b); got != (Vec3{0.5, 1, 1.5}) {
		t.Errorf("Sub: got %+v", got)
	}
	if got := b.Scale(2); got != (Vec3{1, 2, 3}) {
		t.Errorf("Scale: got %+v", got)
	}
	if got := a.Add(b); got != (Vec3{1.5, 3, 4.5}) {
		t.Errorf("Add: got %+v", got)
	}
}
