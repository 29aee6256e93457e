package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"voicematch/app/services"
)

// StatsController exposes matchmaking gauges over HTTP for operators
type StatsController struct {
	queue       *services.QueueService
	sessions    *services.SessionService
	connections *services.ConnectionService
	history     *services.HistoryService
}

// NewStatsController creates a new stats controller instance
func NewStatsController(queue *services.QueueService, sessions *services.SessionService,
	connections *services.ConnectionService, history *services.HistoryService) *StatsController {
	return &StatsController{
		queue:       queue,
		sessions:    sessions,
		connections: connections,
		history:     history,
	}
}

// GetStats returns the current queue/session/connection gauges
func (c *StatsController) GetStats(ctx *fiber.Ctx) error {
	queueDepth := c.queue.Depth()
	activeSessions := c.sessions.ActiveCount()
	connections := c.connections.Count()

	// Mirror the gauges to Redis for tooling that cannot reach the process
	c.history.CacheStats(queueDepth, activeSessions, connections)

	return ctx.JSON(fiber.Map{
		"queue_depth":     queueDepth,
		"active_sessions": activeSessions,
		"connections":     connections,
		"total_calls":     c.history.TotalCalls(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

// GetRecentCalls returns the latest persisted call records
func (c *StatsController) GetRecentCalls(ctx *fiber.Ctx) error {
	records, err := c.history.RecentCalls(20)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"calls":     records,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
