package handlers

import (
	"errors"

	"mindwave/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ModeHandler exposes the response-mode registry
type ModeHandler struct {
	mind *services.MindService
}

// NewModeHandler creates a new mode handler
func NewModeHandler(mind *services.MindService) *ModeHandler {
	return &ModeHandler{mind: mind}
}

// List returns all modes and the current default.
// GET /api/v1/mode
func (h *ModeHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"default": h.mind.DefaultMode(),
		"modes":   h.mind.Modes().All(),
	})
}

// SetDefault changes the process-wide default mode.
// POST /api/v1/mode
func (h *ModeHandler) SetDefault(c *fiber.Ctx) error {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.BodyParser(&req); err != nil || req.Mode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Mode is required",
		})
	}

	if err := h.mind.SetDefaultMode(req.Mode); err != nil {
		var invalidMode *services.InvalidModeError
		if errors.As(err, &invalidMode) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":       invalidMode.Error(),
				"valid_modes": invalidMode.Valid,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"default": h.mind.DefaultMode(),
	})
}
