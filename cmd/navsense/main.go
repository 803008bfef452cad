// navsense runs the hazard-narration pipeline against a simulated
// detection feed: track, model, rank, analyze, narrate, speak. Status
// is served over HTTP while the loop runs.
//
// Without GOOGLE_API_KEY it uses a mock synthesizer and discards
// audio, so the demo runs anywhere. Pass -speak with credentials for
// real speech.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/navsense/navsense/internal/config"
	"github.com/navsense/navsense/internal/log"
	"github.com/navsense/navsense/internal/metrics"
	"github.com/navsense/navsense/pkg/audio"
	"github.com/navsense/navsense/pkg/detection"
	"github.com/navsense/navsense/pkg/geometry"
	"github.com/navsense/navsense/pkg/pipeline"
	"github.com/navsense/navsense/pkg/speech"
	"github.com/navsense/navsense/pkg/tts"
	"github.com/navsense/navsense/pkg/web"
	"github.com/navsense/navsense/pkg/worldmodel"
)

// simIntrinsics matches the 224x224 simulated frames.
var simIntrinsics = geometry.Intrinsics{Fx: 200, Fy: 200, Cx: 112, Cy: 112}

// main delegates to run so deferred cleanup fires on every exit path;
// os.Exit here would skip it.
func main() {
	os.Exit(run())
}

func run() int {
	var (
		port     = flag.String("port", config.StatusPort(), "status server port")
		interval = flag.Int("narration-interval", config.Int("NAVSENSE_NARRATION_INTERVAL", 45), "frames between narrations")
		keep     = flag.Duration("keep", config.Duration("NAVSENSE_KEEP_WINDOW", 5*time.Second), "world model retention window")
		fps      = flag.Int("fps", config.Int("NAVSENSE_FPS", 30), "simulated frame rate")
		frames   = flag.Int("frames", 0, "stop after this many frames, 0 runs until interrupted")
		speak    = flag.Bool("speak", false, "synthesize and play real audio (needs GOOGLE_API_KEY)")
		format   = flag.String("audio-format", "mp3", "synthesis output format: mp3 or opus")
	)
	flag.Parse()

	log.Init(config.LogLevel())
	logger := log.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, player, err := buildSpeechStack(ctx, *speak, *format)
	if err != nil {
		logger.Error("failed to set up speech stack", "error", err)
		return 1
	}
	defer provider.Close()

	m := metrics.New()

	scheduler, err := speech.New(provider, player,
		speech.WithLogger(logger),
		speech.WithMetrics(m))
	if err != nil {
		logger.Error("failed to create speech scheduler", "error", err)
		return 1
	}
	scheduler.Start()

	pipe := pipeline.New(scheduler,
		pipeline.WithNarrationInterval(*interval),
		pipeline.WithWorldModel(worldmodel.New(worldmodel.WithKeepDuration(*keep))),
		pipeline.WithIntrinsics(simIntrinsics),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m))

	// Deferred so a panic anywhere in the frame loop still stops the
	// speech worker, flushes the queue and deletes the audio cache
	// before the process dies.
	defer pipe.Close()

	server := web.NewServer(*port, pipe,
		web.WithLogger(logger),
		web.WithMetrics(m))
	server.StartAsync()
	defer func() {
		if err := server.Shutdown(); err != nil {
			logger.Warn("status server shutdown", "error", err)
		}
	}()

	src := detection.NewSimSource(detection.WithMaxFrames(*frames))
	defer src.Close()

	// A source that cannot produce its first frame is a setup failure,
	// not a transient.
	first, err := src.Next(ctx)
	if err != nil {
		logger.Error("detection source failed at startup", "error", err)
		return 1
	}
	pipe.ProcessFrame(first)

	logger.Info("navsense running",
		"port", *port,
		"fps", *fps,
		"narration_interval", *interval)

	runLoop(ctx, logger, src, pipe, *fps)

	logger.Info("shutting down")

	st := pipe.Status()
	fmt.Printf("processed %d frames, %d narrations\n", st.FramesProcessed, st.Narrations)
	return 0
}

// runLoop feeds frames to the pipeline at the configured rate until the
// source is exhausted or the context is cancelled.
func runLoop(ctx context.Context, logger *slog.Logger, src detection.Source, pipe *pipeline.Pipeline, fps int) {
	if fps < 1 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := src.Next(ctx)
			if errors.Is(err, detection.ErrSourceClosed) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("detection source error", "error", err)
				continue
			}
			pipe.ProcessFrame(frame)
		}
	}
}

// buildSpeechStack picks real synthesis and playback when requested and
// credentialed, mock and discard otherwise.
func buildSpeechStack(ctx context.Context, speak bool, format string) (tts.Provider, audio.Player, error) {
	if !speak {
		return tts.NewMock(), audio.Discard{}, nil
	}

	opts := []tts.Option{tts.WithOutputFormat(parseEncoding(format))}
	if key := config.GoogleAPIKey(); key != "" {
		opts = append(opts, tts.WithAPIKey(key))
	}
	provider, err := tts.NewGoogle(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	return provider, audio.NewExecPlayer(log.With("component", "audio")), nil
}

// parseEncoding maps the -audio-format flag to a synthesis encoding.
// Opus output is decoded to PCM in-process before playback.
func parseEncoding(format string) tts.Encoding {
	if format == "opus" {
		return tts.EncodingOpus
	}
	return tts.EncodingMP3
}
