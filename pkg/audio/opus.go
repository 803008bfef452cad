package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/navsense/navsense/pkg/tts"
)

// opus streams decode to 48kHz; hraban/opus resamples internally.
const opusDecodeRate = 48000

// decodeOpus decodes an ogg/opus buffer to mono PCM16 so the exec
// player can pipe it to aplay.
func decodeOpus(data []byte) ([]byte, tts.AudioFormat, error) {
	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, tts.AudioFormat{}, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	var out bytes.Buffer
	pcm := make([]int16, 16384)
	for {
		n, err := stream.Read(pcm)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, tts.AudioFormat{}, fmt.Errorf("read stream: %w", err)
		}
		out.Grow(n * 2)
		for _, s := range pcm[:n] {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], uint16(s))
			out.Write(b[:])
		}
	}

	format := tts.AudioFormat{
		Encoding:   tts.EncodingPCM,
		SampleRate: opusDecodeRate,
		Channels:   1,
		BitDepth:   16,
	}
	return out.Bytes(), format, nil
}
