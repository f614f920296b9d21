package handlers

import (
	"strconv"

	"mindwave/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GuardHandler exposes the external-service health monitor
type GuardHandler struct {
	guard *services.GuardService
}

// NewGuardHandler creates a new guard handler
func NewGuardHandler(guard *services.GuardService) *GuardHandler {
	return &GuardHandler{guard: guard}
}

// Check runs a fresh check of every monitored service.
// GET /api/v1/guard/check
func (h *GuardHandler) Check(c *fiber.Ctx) error {
	checks := h.guard.CheckAll(c.Context())
	return c.JSON(fiber.Map{
		"checks": checks,
		"count":  len(checks),
	})
}

// Status returns the latest recorded check per service without pinging.
// GET /api/v1/guard/status
func (h *GuardHandler) Status(c *fiber.Ctx) error {
	checks, err := h.guard.Latest()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load guard status: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"services": checks,
		"count":    len(checks),
	})
}

// History returns recent checks for one service.
// GET /api/v1/guard/history?service=memory-store&limit=50
func (h *GuardHandler) History(c *fiber.Ctx) error {
	service := c.Query("service", "")
	if service == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter service is required",
		})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	checks, err := h.guard.History(service, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load guard history: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"service": service,
		"checks":  checks,
		"count":   len(checks),
	})
}
