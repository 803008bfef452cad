// Package tts provides a unified interface for text-to-speech
// providers.
//
// The speech scheduler synthesizes narration phrases through the
// Provider interface, so backends (Google Cloud TTS, a fallback chain,
// the test mock) are interchangeable without touching caller code.
//
// Example usage:
//
//	provider, _ := tts.NewGoogle(ctx,
//	    tts.WithAPIKey(os.Getenv("GOOGLE_API_KEY")),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "car very close on your left")
//	// result.Audio contains MP3/opus/PCM audio bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete
	// audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and credential validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis round-trip time in milliseconds.
	LatencyMs int64
}

// Duration estimates the playback duration for PCM results; zero for
// compressed formats whose length is not knowable from byte count.
func (r *AudioResult) Duration() time.Duration {
	f := r.Format
	if f.BitDepth == 0 || f.SampleRate == 0 || f.Channels == 0 {
		return 0
	}
	bytesPerSecond := f.SampleRate * f.Channels * f.BitDepth / 8
	return time.Duration(len(r.Audio)) * time.Second / time.Duration(bytesPerSecond)
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec.
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 22050).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16); 0 otherwise.
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// EncodingMP3 is MP3 at the provider's default bitrate.
	EncodingMP3 Encoding = "mp3"

	// EncodingOpus is opus in an ogg container.
	EncodingOpus Encoding = "ogg_opus"

	// EncodingPCM is raw mono PCM16; the sample rate is carried in
	// AudioFormat.
	EncodingPCM Encoding = "pcm"
)
