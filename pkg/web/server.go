// Package web serves the status surface: health, JSON status and world
// snapshots, prometheus metrics, and a live websocket world feed.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/navsense/navsense/internal/metrics"
	"github.com/navsense/navsense/pkg/hub"
	"github.com/navsense/navsense/pkg/pipeline"
)

const defaultBroadcastInterval = 500 * time.Millisecond

// Server exposes pipeline state over HTTP and websocket.
type Server struct {
	app      *fiber.App
	port     string
	logger   *slog.Logger
	pipe     *pipeline.Pipeline
	worldHub *hub.Hub
	interval time.Duration

	cancel context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger.With("component", "web") }
}

// WithBroadcastInterval sets how often world snapshots are pushed to
// websocket clients.
func WithBroadcastInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMetrics mounts the prometheus handler at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}
}

// NewServer builds the status server around a running pipeline.
func NewServer(port string, pipe *pipeline.Pipeline, opts ...Option) *Server {
	s := &Server{
		port:     port,
		logger:   slog.Default().With("component", "web"),
		pipe:     pipe,
		interval: defaultBroadcastInterval,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "navsense status",
		DisableStartupMessage: true,
	})
	s.app.Use(cors.New())

	s.app.Get("/healthz", s.handleHealthz)

	api := s.app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/world", s.handleWorld)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/world", websocket.New(s.handleWorldWS))

	for _, opt := range opts {
		opt(s)
	}

	s.worldHub = hub.New(s.logger)
	return s
}

// Start runs the hub, the snapshot broadcaster and the listener. It
// blocks until Shutdown or a listen error.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.worldHub.Run(ctx)
	go s.broadcastLoop(ctx)

	s.logger.Info("status server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs Start on its own goroutine, logging any error.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("status server failed", "error", err)
		}
	}()
}

// broadcastLoop pushes world snapshots to websocket clients on a fixed
// cadence. Skips the marshal work entirely while nobody is connected.
func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.worldHub.ClientCount() == 0 {
				continue
			}
			if err := s.worldHub.BroadcastJSON(s.worldMessage()); err != nil {
				s.logger.Warn("failed to broadcast world snapshot", "error", err)
			}
		}
	}
}

// Shutdown stops the broadcaster, disconnects clients and closes the
// listener.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.app.Shutdown()
}
