package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

const providerGoogle = "google"

// Default Google voice for narration.
const DefaultGoogleVoice = "en-US-Standard-C"

// Google implements Provider for the Google Cloud Text-to-Speech API.
type Google struct {
	config  *Config
	service *texttospeech.Service
	logger  *slog.Logger
}

// NewGoogle creates a Google Cloud TTS provider. With an API key it
// authenticates directly; otherwise it falls back to Application
// Default Credentials.
func NewGoogle(ctx context.Context, opts ...Option) (*Google, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = DefaultGoogleVoice
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var clientOpts []option.ClientOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	} else {
		creds, err := google.FindDefaultCredentials(ctx, texttospeech.CloudPlatformScope)
		if err != nil {
			return nil, WrapError(providerGoogle, fmt.Errorf("%w: %v", ErrNoCredentials, err))
		}
		clientOpts = append(clientOpts, option.WithTokenSource(creds.TokenSource))
	}

	service, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("create service: %w", err))
	}

	return &Google{
		config:  cfg,
		service: service,
		logger:  cfg.Logger.With("component", "tts.google"),
	}, nil
}

// Synthesize converts text to audio, returning the complete audio
// buffer.
func (g *Google) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.config.LanguageCode,
			Name:         g.config.VoiceID,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: googleEncoding(g.config.OutputFormat),
			SpeakingRate:  g.config.SpeakingRate,
		},
	}

	resp, err := g.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("synthesize: %w", err))
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("decode audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerGoogle, ErrEmptyAudio)
	}

	latency := time.Since(start).Milliseconds()
	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", g.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    formatFor(g.config.OutputFormat),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health verifies credentials by listing available voices.
func (g *Google) Health(ctx context.Context) error {
	_, err := g.service.Voices.List().LanguageCode(g.config.LanguageCode).Context(ctx).Do()
	if err != nil {
		return WrapError(providerGoogle, fmt.Errorf("list voices: %w", err))
	}
	return nil
}

// Close releases provider resources. The REST service holds none.
func (g *Google) Close() error {
	return nil
}

// googleEncoding maps our encodings to the API's enum values.
func googleEncoding(enc Encoding) string {
	switch enc {
	case EncodingOpus:
		return "OGG_OPUS"
	case EncodingPCM:
		return "LINEAR16"
	default:
		return "MP3"
	}
}

// formatFor fills in format metadata for a given encoding.
func formatFor(enc Encoding) AudioFormat {
	switch enc {
	case EncodingOpus:
		return AudioFormat{Encoding: EncodingOpus, SampleRate: 24000, Channels: 1}
	case EncodingPCM:
		return AudioFormat{Encoding: EncodingPCM, SampleRate: 24000, Channels: 1, BitDepth: 16}
	default:
		return AudioFormat{Encoding: EncodingMP3, SampleRate: 24000, Channels: 1}
	}
}

// Verify Google implements Provider at compile time.
var _ Provider = (*Google)(nil)
