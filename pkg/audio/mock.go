package audio

import (
	"context"
	"sync"
	"time"

	"github.com/navsense/navsense/pkg/tts"
)

// Mock implements Player for testing. Each Play is recorded; an
// optional per-play delay simulates real playback duration and makes
// cancellation testable.
type Mock struct {
	// PlayDelay is how long each Play blocks before returning.
	PlayDelay time.Duration

	// PlayErr, when set, is returned by every Play call.
	PlayErr error

	mu     sync.Mutex
	played []string
	closed bool
}

// NewMockPlayer creates a mock player with no delay.
func NewMockPlayer() *Mock {
	return &Mock{}
}

// Play records the call and blocks for PlayDelay or until ctx is done.
func (m *Mock) Play(ctx context.Context, result *tts.AudioResult) error {
	m.mu.Lock()
	m.played = append(m.played, string(result.Format.Encoding))
	m.mu.Unlock()

	if m.PlayErr != nil {
		return m.PlayErr
	}
	if m.PlayDelay > 0 {
		select {
		case <-time.After(m.PlayDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

// Close marks the player closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// PlayCount returns how many times Play was called.
func (m *Mock) PlayCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.played)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Player at compile time.
var _ Player = (*Mock)(nil)
