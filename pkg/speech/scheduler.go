// Package speech schedules narration playback off the pipeline's hot
// path. A single worker goroutine synthesizes and plays phrases from a
// bounded queue; producers never block, identical phrases are debounced,
// and synthesized audio is cached on disk by content hash for the
// lifetime of the run.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/navsense/navsense/internal/metrics"
	"github.com/navsense/navsense/pkg/audio"
	"github.com/navsense/navsense/pkg/tts"
)

// Defaults matching the narration cadence: identical phrases repeat at
// most every cooldown, and a shallow queue keeps narration fresh.
const (
	defaultQueueCap     = 5
	defaultCooldown     = 3 * time.Second
	defaultPollInterval = 200 * time.Millisecond
)

type request struct {
	id   uuid.UUID
	text string
}

// Scheduler owns the speech worker, its bounded queue and the per-run
// audio cache. Producers call Speak from the pipeline goroutine; the
// worker runs on its own goroutine. The queue channel is the only
// state shared across that boundary.
type Scheduler struct {
	provider tts.Provider
	player   audio.Player
	logger   *slog.Logger
	metrics  *metrics.Metrics

	queue        chan request
	cooldown     time.Duration
	pollInterval time.Duration
	cacheDir     string
	now          func() time.Time

	// Producer-side debounce state, guarded by mu.
	mu           sync.Mutex
	lastText     string
	lastAccepted time.Time

	// Worker state. cachedFormat is touched only by the worker.
	running      atomic.Bool
	cancel       context.CancelFunc
	done         chan struct{}
	spoken       atomic.Uint64
	cachedFormat tts.AudioFormat
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCooldown sets the minimum interval between accepting the same
// phrase twice without force.
func WithCooldown(d time.Duration) Option {
	return func(s *Scheduler) { s.cooldown = d }
}

// WithQueueCapacity sets the bounded queue size.
func WithQueueCapacity(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.queue = make(chan request, n)
		}
	}
}

// WithPollInterval sets how often the idle worker re-checks for
// shutdown.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.pollInterval = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger.With("component", "speech") }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler and its per-run cache directory. Call Start
// to launch the worker and Stop to tear everything down.
func New(provider tts.Provider, player audio.Player, opts ...Option) (*Scheduler, error) {
	cacheDir, err := os.MkdirTemp("", "navsense-speech-*")
	if err != nil {
		return nil, fmt.Errorf("speech: create cache dir: %w", err)
	}

	s := &Scheduler{
		provider:     provider,
		player:       player,
		logger:       slog.Default().With("component", "speech"),
		queue:        make(chan request, defaultQueueCap),
		cooldown:     defaultCooldown,
		pollInterval: defaultPollInterval,
		cacheDir:     cacheDir,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the worker goroutine.
func (s *Scheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.workerLoop(ctx)
	s.logger.Info("speech worker started", "cache_dir", s.cacheDir, "queue_cap", cap(s.queue))
}

// Speak queues a phrase for playback. It never blocks: when the queue
// is full the oldest pending phrase is discarded to make room. A phrase
// equal to the last accepted one is dropped while the cooldown holds,
// unless force is set. Returns whether the phrase was accepted.
func (s *Scheduler) Speak(text string, force bool) bool {
	if text == "" || !s.running.Load() {
		return false
	}

	s.mu.Lock()
	if !force && text == s.lastText && s.now().Sub(s.lastAccepted) < s.cooldown {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.PhrasesDebounced.Add(1)
		}
		return false
	}
	s.lastText = text
	s.lastAccepted = s.now()
	s.mu.Unlock()

	s.push(request{id: uuid.New(), text: text})
	return true
}

// push enqueues without blocking, evicting the oldest queued request
// when full. Freshness beats completeness here: a stale hazard phrase
// is worse than a dropped one.
func (s *Scheduler) push(req request) {
	for {
		select {
		case s.queue <- req:
			return
		default:
		}
		select {
		case old := <-s.queue:
			s.logger.Debug("queue full, dropped oldest phrase", "dropped_id", old.id, "text", old.text)
			if s.metrics != nil {
				s.metrics.PhrasesDropped.Add(1)
			}
		default:
		}
	}
}

// QueueLen returns the number of phrases waiting for the worker.
func (s *Scheduler) QueueLen() int {
	return len(s.queue)
}

// PhrasesSpoken returns how many phrases have played to completion.
func (s *Scheduler) PhrasesSpoken() uint64 {
	return s.spoken.Load()
}

// CacheDir returns the per-run audio cache directory.
func (s *Scheduler) CacheDir() string {
	return s.cacheDir
}

// Stop shuts the worker down: in-flight playback is interrupted, the
// queue is drained, and the audio cache is deleted. It returns the
// total number of phrases spoken.
func (s *Scheduler) Stop() uint64 {
	if !s.running.CompareAndSwap(true, false) {
		return s.spoken.Load()
	}

	s.cancel()
	<-s.done

	// Drain anything still queued.
drain:
	for {
		select {
		case <-s.queue:
		default:
			break drain
		}
	}

	s.player.Close()
	if err := os.RemoveAll(s.cacheDir); err != nil {
		s.logger.Warn("failed to remove cache dir", "dir", s.cacheDir, "error", err)
	}

	spoken := s.spoken.Load()
	s.logger.Info("speech worker stopped", "phrases_spoken", spoken)
	return spoken
}

// workerLoop pops phrases one at a time and plays each to completion
// before the next. Errors are logged and the loop keeps going; only
// cancellation stops it.
func (s *Scheduler) workerLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.queue:
			s.process(ctx, req)
		case <-ticker.C:
			// Idle poll so shutdown is observed within one interval
			// even if the queue channel misbehaves.
		}
	}
}

func (s *Scheduler) process(ctx context.Context, req request) {
	result, err := s.ensureAudio(ctx, req.text)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("synthesis failed", "id", req.id, "error", err)
		if s.metrics != nil {
			s.metrics.SynthesisErrors.Add(1)
		}
		return
	}

	if err := s.player.Play(ctx, result); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("playback failed", "id", req.id, "error", err)
		if s.metrics != nil {
			s.metrics.PlaybackErrors.Add(1)
		}
		return
	}

	s.spoken.Add(1)
	if s.metrics != nil {
		s.metrics.PhrasesSpoken.Add(1)
	}
	s.logger.Debug("spoke phrase", "id", req.id, "text", req.text)
}

// ensureAudio returns cached audio for the phrase, synthesizing and
// caching it on first use. The cache is keyed by a content hash of the
// text, so a given hash never serves audio for different source text
// (collisions accepted, not mitigated). Writes per hash are idempotent.
func (s *Scheduler) ensureAudio(ctx context.Context, text string) (*tts.AudioResult, error) {
	path := s.cachePath(text)

	if data, err := os.ReadFile(path); err == nil {
		if s.metrics != nil {
			s.metrics.CacheHits.Add(1)
		}
		// A hit implies a prior miss this run, so the recorded
		// format is always populated.
		return &tts.AudioResult{
			Audio:     data,
			Format:    s.cachedFormat,
			CharCount: len(text),
		}, nil
	}

	result, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Add(1)
	}
	s.cachedFormat = result.Format

	if err := os.WriteFile(path, result.Audio, 0o644); err != nil {
		// Cache write failure is not fatal; play the fresh result.
		s.logger.Warn("failed to cache audio", "path", path, "error", err)
	}
	return result, nil
}

func (s *Scheduler) cachePath(text string) string {
	sum := sha256.Sum256([]byte(text))
	return filepath.Join(s.cacheDir, hex.EncodeToString(sum[:])+".audio")
}
