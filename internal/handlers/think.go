package handlers

import (
	"errors"
	"log"
	"time"

	"mindwave/internal/logging"
	"mindwave/internal/models"
	"mindwave/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Rough per-request cost estimates in USD, shown to the client so the
// UI can hint which engine answered and what it cost.
var engineCostEstimate = map[models.EngineName]float64{
	models.EngineClaude: 0.015,
	models.EngineGemini: 0.001,
	models.EngineOpenAI: 0.020,
}

// ThinkHandler handles the main query endpoint
type ThinkHandler struct {
	mind    *services.MindService
	context *services.ContextBuilder
	memory  *services.MemoryService
	voice   *services.VoiceService
}

// NewThinkHandler creates a new think handler
func NewThinkHandler(
	mind *services.MindService,
	contextBuilder *services.ContextBuilder,
	memory *services.MemoryService,
	voice *services.VoiceService,
) *ThinkHandler {
	return &ThinkHandler{
		mind:    mind,
		context: contextBuilder,
		memory:  memory,
		voice:   voice,
	}
}

type thinkRequest struct {
	Query        string `json:"query"`
	SessionID    string `json:"session_id"`
	Mode         string `json:"mode"`
	HistoryLimit int    `json:"history_limit"`
	Voice        bool   `json:"voice"`
}

// Handle processes one query end to end: assemble context, run the
// ensemble, persist the exchange, optionally pre-generate voice.
// POST /api/v1/think
func (h *ThinkHandler) Handle(c *fiber.Ctx) error {
	if h.mind == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Mind not initialized",
		})
	}

	var req thinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	contextBlock := ""
	if h.context != nil {
		contextBlock = h.context.Build(c.Context(), req.HistoryLimit, req.Query)
	}

	result, err := h.mind.Think(c.Context(), req.Query, contextBlock, req.Mode)
	if err != nil {
		var invalidMode *services.InvalidModeError
		if errors.As(err, &invalidMode) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":       invalidMode.Error(),
				"valid_modes": invalidMode.Valid,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Think failed: " + err.Error(),
		})
	}

	logging.WithThink(req.SessionID, string(result.Category), string(result.Engine)).
		Info("think served", "mode", result.Mode, "degraded", result.Exhausted)

	// Persistence never fails the response
	if h.memory != nil && !result.Exhausted {
		_, err := h.memory.StoreConversation(c.Context(), models.Conversation{
			Query:     req.Query,
			Response:  result.Response,
			Engine:    string(result.Engine),
			Category:  string(result.Category),
			SessionID: req.SessionID,
			Mode:      result.Mode,
		})
		if err != nil {
			log.Printf("⚠️  [THINK] Failed to persist conversation: %v", err)
		}
	}

	voiceID := ""
	if req.Voice && h.voice.Enabled() && !result.Exhausted {
		voiceID = uuid.New().String()
		h.voice.Precache(voiceID, result.Response)
	}

	resp := fiber.Map{
		"response":   result.Response,
		"engine":     string(result.Engine),
		"category":   string(result.Category),
		"mode":       result.Mode,
		"session_id": req.SessionID,
		"degraded":   result.Exhausted,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if cost, ok := engineCostEstimate[result.Engine]; ok {
		resp["cost_estimate"] = cost
	}
	if voiceID != "" {
		resp["voice_id"] = voiceID
		resp["voice_url"] = "/api/v1/voice/" + voiceID
	}
	return c.JSON(resp)
}

// Route exposes routing introspection without running any engine.
// GET /api/v1/route?q=...
func (h *ThinkHandler) Route(c *fiber.Ctx) error {
	if h.mind == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Mind not initialized",
		})
	}
	query := c.Query("q", "")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	engine, category := h.mind.Route(query)
	return c.JSON(fiber.Map{
		"query":    query,
		"engine":   string(engine),
		"category": string(category),
	})
}

// Stats returns session counters.
// GET /api/v1/stats
func (h *ThinkHandler) Stats(c *fiber.Ctx) error {
	if h.mind == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Mind not initialized",
		})
	}
	return c.JSON(h.mind.Stats())
}
