package detection

import (
	"context"
	"errors"
	"testing"
)

func TestSimSource_DepthWarmup(t *testing.T) {
	src := NewSimSource(WithDepthEvery(3), WithMaxFrames(10))
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		frame, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frame.Index != i {
			t.Errorf("frame index: got %d, want %d", frame.Index, i)
		}
		if i < 3 && frame.Depth != nil {
			t.Errorf("frame %d: expected nil depth before first depth pass", i)
		}
		if i >= 3 && frame.Depth == nil {
			t.Errorf("frame %d: expected depth map", i)
		}
	}

	if _, err := src.Next(ctx); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("exhausted source: got %v, want ErrSourceClosed", err)
	}
}

func TestSimSource_Close(t *testing.T) {
	src := NewSimSource()
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := src.Next(context.Background()); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("after close: got %v, want ErrSourceClosed", err)
	}
}

func TestDepthMap_ClampedLookup(t *testing.T) {
	m := NewDepthMap(4, 4)
	m.Fill(5.0)
	m.Set(0, 0, 1.0)
	m.Set(3, 3, 2.0)

	if got := m.At(-5, -5); got != 1.0 {
		t.Errorf("clamped low: got %v, want 1.0", got)
	}
	if got := m.At(100, 100); got != 2.0 {
		t.Errorf("clamped high: got %v, want 2.0", got)
	}
	if got := m.At(1, 1); got != 5.0 {
		t.Errorf("interior: got %v, want 5.0", got)
	}
}
