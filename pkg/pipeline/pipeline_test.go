package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/navsense/navsense/pkg/detection"
	"github.com/navsense/navsense/pkg/geometry"
	"github.com/navsense/navsense/pkg/narration"
)

type fakeSpeaker struct {
	mu      sync.Mutex
	phrases []string
	stopped bool
}

func (f *fakeSpeaker) Speak(text string, force bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phrases = append(f.phrases, text)
	return true
}

func (f *fakeSpeaker) Stop() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return uint64(len(f.phrases))
}

func (f *fakeSpeaker) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.phrases))
	copy(out, f.phrases)
	return out
}

func depthFrame(index int, depth float64, dets ...detection.Detection) detection.Frame {
	dm := detection.NewDepthMap(640, 480)
	dm.Fill(depth)
	return detection.Frame{Index: index, Detections: dets, Depth: dm}
}

func TestProcessFrameSkipsWithoutDepth(t *testing.T) {
	speaker := &fakeSpeaker{}
	p := New(speaker)

	p.ProcessFrame(detection.Frame{Index: 0})

	st := p.Status()
	if st.FramesSkipped != 1 {
		t.Errorf("FramesSkipped = %d, want 1", st.FramesSkipped)
	}
	if st.FramesProcessed != 0 {
		t.Errorf("FramesProcessed = %d, want 0", st.FramesProcessed)
	}
}

func TestNarrationCadence(t *testing.T) {
	speaker := &fakeSpeaker{}
	p := New(speaker, WithNarrationInterval(3))

	for i := 0; i < 7; i++ {
		p.ProcessFrame(depthFrame(i, 5.0))
	}

	phrases := speaker.spoken()
	if len(phrases) != 2 {
		t.Fatalf("narrations = %d, want 2 (after frames 3 and 6)", len(phrases))
	}
	for _, phrase := range phrases {
		if phrase != narration.AllClear {
			t.Errorf("empty scene narration = %q, want %q", phrase, narration.AllClear)
		}
	}
	if st := p.Status(); st.LastNarration != narration.AllClear {
		t.Errorf("LastNarration = %q, want %q", st.LastNarration, narration.AllClear)
	}
}

func TestApproachingObjectReachesNarration(t *testing.T) {
	speaker := &fakeSpeaker{}
	p := New(speaker, WithNarrationInterval(4))

	// A person centered in the image, depth shrinking frame over frame,
	// reads as approaching in the path corridor.
	box := geometry.BBox{X1: 300, Y1: 200, X2: 340, Y2: 280}
	for i := 0; i < 4; i++ {
		depth := 2.0 - 0.3*float64(i)
		p.ProcessFrame(depthFrame(i, depth, detection.Detection{BBox: box, Class: "person"}))
	}

	phrases := speaker.spoken()
	if len(phrases) != 1 {
		t.Fatalf("narrations = %d, want 1", len(phrases))
	}
	if phrases[0] == narration.AllClear {
		t.Errorf("approaching person narrated as %q", phrases[0])
	}

	st := p.Status()
	if st.ActiveTracks != 1 {
		t.Errorf("ActiveTracks = %d, want 1", st.ActiveTracks)
	}
	if st.WorldEntries != 1 {
		t.Errorf("WorldEntries = %d, want 1", st.WorldEntries)
	}
	if len(st.TopRanked) != 1 {
		t.Errorf("TopRanked = %d entries, want 1", len(st.TopRanked))
	}
}

func TestDeferredCloseStopsSpeakerDuringPanic(t *testing.T) {
	speaker := &fakeSpeaker{}

	// A host loop that dies mid-frame must still release the speaker
	// via its deferred Close on the way out.
	func() {
		defer func() { recover() }()
		p := New(speaker)
		defer p.Close()

		p.ProcessFrame(depthFrame(0, 5.0))
		panic("frame loop failure")
	}()

	speaker.mu.Lock()
	stopped := speaker.stopped
	speaker.mu.Unlock()
	if !stopped {
		t.Error("speaker not stopped while panic unwound")
	}
}

func TestPipelineWithSimSource(t *testing.T) {
	speaker := &fakeSpeaker{}
	p := New(speaker, WithNarrationInterval(10))

	src := detection.NewSimSource(detection.WithMaxFrames(90))
	defer src.Close()

	for {
		frame, err := src.Next(context.Background())
		if errors.Is(err, detection.ErrSourceClosed) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		p.ProcessFrame(frame)
	}

	st := p.Status()
	if st.FramesProcessed == 0 {
		t.Fatal("no frames processed from sim source")
	}
	if st.Narrations == 0 {
		t.Fatal("no narrations generated")
	}
	if st.LastNarration == "" {
		t.Error("LastNarration is empty")
	}

	p.Close()
	speaker.mu.Lock()
	stopped := speaker.stopped
	speaker.mu.Unlock()
	if !stopped {
		t.Error("Close did not stop the speaker")
	}
}
