// Package metrics exposes pipeline counters as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all navsense counters. The hot path updates plain
// atomics; Prometheus reads them lazily through GaugeFunc collectors.
type Metrics struct {
	// Frame pipeline
	FramesProcessed atomic.Uint64
	FramesSkipped   atomic.Uint64 // frames without a depth map
	ActiveTracks    atomic.Uint64
	WorldEntries    atomic.Uint64

	// Narration and speech
	NarrationsGenerated atomic.Uint64
	PhrasesSpoken       atomic.Uint64
	PhrasesDropped      atomic.Uint64 // evicted from a full queue
	PhrasesDebounced    atomic.Uint64
	SynthesisErrors     atomic.Uint64
	PlaybackErrors      atomic.Uint64
	CacheHits           atomic.Uint64
	CacheMisses         atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	counters := []struct {
		name string
		help string
		load func() uint64
	}{
		{"navsense_frames_processed_total", "Frames run through the full pipeline", m.FramesProcessed.Load},
		{"navsense_frames_skipped_total", "Frames skipped for missing depth", m.FramesSkipped.Load},
		{"navsense_narrations_generated_total", "Narration sentences generated", m.NarrationsGenerated.Load},
		{"navsense_phrases_spoken_total", "Phrases played to completion", m.PhrasesSpoken.Load},
		{"navsense_phrases_dropped_total", "Queued phrases evicted by newer ones", m.PhrasesDropped.Load},
		{"navsense_phrases_debounced_total", "Speak calls suppressed by the cooldown", m.PhrasesDebounced.Load},
		{"navsense_synthesis_errors_total", "TTS synthesis failures", m.SynthesisErrors.Load},
		{"navsense_playback_errors_total", "Audio playback failures", m.PlaybackErrors.Load},
		{"navsense_speech_cache_hits_total", "Phrases served from the audio cache", m.CacheHits.Load},
		{"navsense_speech_cache_misses_total", "Phrases synthesized on cache miss", m.CacheMisses.Load},
	}

	for _, c := range counters {
		load := c.load
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(load()) },
		))
	}

	// Level metrics, not monotonic: these track the current set sizes.
	gauges := []struct {
		name string
		help string
		load func() uint64
	}{
		{"navsense_active_tracks", "Tracks currently held by the tracker", m.ActiveTracks.Load},
		{"navsense_world_entries", "Entries currently in the world model", m.WorldEntries.Load},
	}

	for _, g := range gauges {
		load := g.load
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(load()) },
		))
	}
}

// Handler returns an http.Handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
