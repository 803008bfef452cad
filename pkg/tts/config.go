package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials. Empty APIKey means Application Default
	// Credentials.
	APIKey string

	// Voice configuration.
	VoiceID      string
	LanguageCode string

	// SpeakingRate scales playback speed; 1.0 is the natural rate.
	// Hazard narration defaults to a brisker 1.3.
	SpeakingRate float64

	// Audio output.
	OutputFormat Encoding

	// Timeout per synthesis request.
	Timeout time.Duration

	// Observability.
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithVoice sets the voice name.
func WithVoice(voiceID string) Option {
	return func(c *Config) { c.VoiceID = voiceID }
}

// WithLanguage sets the BCP-47 language code.
func WithLanguage(code string) Option {
	return func(c *Config) { c.LanguageCode = code }
}

// WithSpeakingRate sets the speech rate multiplier.
func WithSpeakingRate(rate float64) Option {
	return func(c *Config) { c.SpeakingRate = rate }
}

// WithOutputFormat sets the audio output format.
func WithOutputFormat(format Encoding) Option {
	return func(c *Config) { c.OutputFormat = format }
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		LanguageCode: "en-US",
		SpeakingRate: 1.3,
		OutputFormat: EncodingMP3,
		Timeout:      30 * time.Second,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.LanguageCode == "" {
		return ErrNoLanguage
	}
	return nil
}
