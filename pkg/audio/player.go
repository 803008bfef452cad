// Package audio provides playback for synthesized narration audio.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"

	"github.com/navsense/navsense/pkg/tts"
)

// Player plays one synthesis result to completion. Play must return
// early when ctx is cancelled; the speech worker relies on that to
// interrupt in-flight playback at shutdown.
type Player interface {
	Play(ctx context.Context, result *tts.AudioResult) error
	Close() error
}

// ExecPlayer pipes audio into an external player process. Running the
// process under exec.CommandContext means cancelling the context kills
// playback rather than waiting for it to finish.
type ExecPlayer struct {
	logger *slog.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecPlayer creates a player that shells out to mpg123 for MP3 and
// aplay for PCM. Opus results are decoded to PCM in-process first.
func NewExecPlayer(logger *slog.Logger) *ExecPlayer {
	return &ExecPlayer{
		logger: logger.With("component", "audio.exec"),
	}
}

// Play blocks until the audio has played to completion, the player
// process fails, or ctx is cancelled.
func (p *ExecPlayer) Play(ctx context.Context, result *tts.AudioResult) error {
	data := result.Audio
	format := result.Format

	if format.Encoding == tts.EncodingOpus {
		pcm, pcmFormat, err := decodeOpus(data)
		if err != nil {
			return fmt.Errorf("decode opus: %w", err)
		}
		data, format = pcm, pcmFormat
	}

	name, args, err := playerCommand(format)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(data)

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	err = cmd.Run()

	p.mu.Lock()
	p.cmd = nil
	p.mu.Unlock()

	if ctx.Err() != nil {
		// Forced stop, not a playback failure.
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("player %s: %w", name, err)
	}

	p.logger.Debug("played audio", "bytes", len(data), "encoding", string(format.Encoding))
	return nil
}

// Close kills any in-flight playback process.
func (p *ExecPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	return nil
}

func playerCommand(format tts.AudioFormat) (string, []string, error) {
	switch format.Encoding {
	case tts.EncodingMP3:
		return "mpg123", []string{"-q", "-"}, nil
	case tts.EncodingPCM:
		return "aplay", []string{
			"-q",
			"-f", "S16_LE",
			"-r", strconv.Itoa(format.SampleRate),
			"-c", strconv.Itoa(format.Channels),
			"-t", "raw",
			"-",
		}, nil
	default:
		return "", nil, fmt.Errorf("audio: no player for encoding %q", format.Encoding)
	}
}

// Discard is a Player that drops audio on the floor. The demo command
// uses it when no audio device is wanted.
type Discard struct{}

// Play discards the audio immediately.
func (Discard) Play(ctx context.Context, result *tts.AudioResult) error {
	return ctx.Err()
}

// Close is a no-op.
func (Discard) Close() error { return nil }

// Verify implementations at compile time.
var (
	_ Player = (*ExecPlayer)(nil)
	_ Player = Discard{}
)
