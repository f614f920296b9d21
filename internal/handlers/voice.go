package handlers

import (
	"mindwave/internal/services"

	"github.com/gofiber/fiber/v2"
)

// VoiceHandler serves generated speech audio
type VoiceHandler struct {
	voice *services.VoiceService
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(voice *services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voice: voice}
}

func (h *VoiceHandler) disabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Voice not configured",
	})
}

// Generate synthesizes speech for arbitrary text.
// POST /api/v1/voice/generate
func (h *VoiceHandler) Generate(c *fiber.Ctx) error {
	if !h.voice.Enabled() {
		return h.disabled(c)
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	id, err := h.voice.Generate(c.Context(), req.Text)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Voice generation failed: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"voice_id": id,
		"url":      "/api/v1/voice/" + id,
	})
}

// Audio streams cached audio by id.
// GET /api/v1/voice/:id
func (h *VoiceHandler) Audio(c *fiber.Ctx) error {
	if !h.voice.Enabled() {
		return h.disabled(c)
	}

	audio, ok := h.voice.Audio(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Voice response not found or expired",
		})
	}

	c.Set("Content-Type", "audio/mpeg")
	c.Set("Cache-Control", "public, max-age=3600")
	return c.Send(audio)
}
