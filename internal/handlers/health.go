package handlers

import (
	"time"

	"mindwave/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	mind    *services.MindService
	memory  *services.MemoryService
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mind *services.MindService, memory *services.MemoryService) *HealthHandler {
	return &HealthHandler{mind: mind, memory: memory, started: time.Now()}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	enginesOnline := 0
	if h.mind != nil {
		enginesOnline = h.mind.Stats().EnginesOnline
	}
	if enginesOnline == 0 {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":         status,
		"engines_online": enginesOnline,
		"memory":         h.memory != nil,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
