package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/navsense/navsense/pkg/hub"
	"github.com/navsense/navsense/pkg/worldmodel"
)

// worldMessage is the payload pushed on /ws/world and served at
// /api/world.
type worldMessage struct {
	Time          time.Time                `json:"time"`
	Entries       map[int]worldmodel.Entry `json:"entries"`
	LastNarration string                   `json:"last_narration"`
}

func (s *Server) worldMessage() worldMessage {
	st := s.pipe.Status()
	return worldMessage{
		Time:          time.Now(),
		Entries:       s.pipe.Snapshot(),
		LastNarration: st.LastNarration,
	}
}

// handleHealthz reports liveness.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns pipeline progress counters.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := s.pipe.Status()
	return c.JSON(fiber.Map{
		"frames_processed": st.FramesProcessed,
		"frames_skipped":   st.FramesSkipped,
		"active_tracks":    st.ActiveTracks,
		"world_entries":    st.WorldEntries,
		"narrations":       st.Narrations,
		"last_narration":   st.LastNarration,
		"top_ranked":       st.TopRanked,
		"ws_clients":       s.worldHub.ClientCount(),
	})
}

// handleWorld returns the current world snapshot.
func (s *Server) handleWorld(c *fiber.Ctx) error {
	return c.JSON(s.worldMessage())
}

// handleWorldWS serves the live world feed. Each client gets the
// current snapshot immediately, then hub broadcasts.
func (s *Server) handleWorldWS(c *websocket.Conn) {
	c.WriteJSON(s.worldMessage())

	client := hub.NewClient(s.worldHub, c)
	client.Run()
}
