package handlers

import (
	"strconv"

	"mindwave/internal/services"

	"github.com/gofiber/fiber/v2"
)

// MemoryHandler exposes the conversational memory store
type MemoryHandler struct {
	memory *services.MemoryService
	digest *services.DigestService
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memory *services.MemoryService, digest *services.DigestService) *MemoryHandler {
	return &MemoryHandler{memory: memory, digest: digest}
}

func (h *MemoryHandler) unavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Memory store not configured",
	})
}

// Conversations returns recent exchanges, newest first.
// GET /api/v1/memory/conversations?limit=20&offset=0
func (h *MemoryHandler) Conversations(c *fiber.Ctx) error {
	if h.memory == nil {
		return h.unavailable(c)
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	conversations := h.memory.RecentConversations(c.Context(), limit, offset)
	return c.JSON(fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// Insights returns extracted insights with optional filters.
// GET /api/v1/memory/insights?type=task&project=Mindwave&actioned=false&limit=50
func (h *MemoryHandler) Insights(c *fiber.Ctx) error {
	if h.memory == nil {
		return h.unavailable(c)
	}

	filter := services.InsightFilter{
		Type:    c.Query("type", ""),
		Project: c.Query("project", ""),
	}
	if limit, err := strconv.Atoi(c.Query("limit", "50")); err == nil && limit > 0 && limit <= 200 {
		filter.Limit = limit
	}
	if raw := c.Query("actioned", ""); raw != "" {
		actioned := raw == "true"
		filter.Actioned = &actioned
	}

	insights := h.memory.Insights(c.Context(), filter)
	return c.JSON(fiber.Map{
		"insights": insights,
		"count":    len(insights),
	})
}

// ActionInsight marks an insight as handled.
// POST /api/v1/memory/insights/:id/action
func (h *MemoryHandler) ActionInsight(c *fiber.Ctx) error {
	if h.memory == nil {
		return h.unavailable(c)
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Insight id is required",
		})
	}
	if err := h.memory.ActionInsight(c.Context(), id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to action insight: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{"actioned": true, "id": id})
}

// Ideas returns stored ideas, optionally by category.
// GET /api/v1/memory/ideas?category=product&limit=20
func (h *MemoryHandler) Ideas(c *fiber.Ctx) error {
	if h.memory == nil {
		return h.unavailable(c)
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ideas := h.memory.Ideas(c.Context(), c.Query("category", ""), limit)
	return c.JSON(fiber.Map{
		"ideas": ideas,
		"count": len(ideas),
	})
}

// StoreIdea saves a free-standing idea.
// POST /api/v1/memory/ideas
func (h *MemoryHandler) StoreIdea(c *fiber.Ctx) error {
	if h.memory == nil {
		return h.unavailable(c)
	}
	var req struct {
		Idea     string `json:"idea"`
		Category string `json:"category"`
	}
	if err := c.BodyParser(&req); err != nil || req.Idea == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Idea text is required",
		})
	}

	id, err := h.memory.StoreIdea(c.Context(), req.Idea, req.Category)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store idea: " + err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// Stats returns store-level counts.
// GET /api/v1/memory/stats
func (h *MemoryHandler) Stats(c *fiber.Ctx) error {
	if h.memory == nil {
		return h.unavailable(c)
	}
	return c.JSON(h.memory.Stats(c.Context()))
}

// GenerateDigest builds and stores today's digest on demand.
// POST /api/v1/memory/digest
func (h *MemoryHandler) GenerateDigest(c *fiber.Ctx) error {
	if h.digest == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Digest service not configured",
		})
	}
	digest, err := h.digest.GenerateDaily(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Digest generation failed: " + err.Error(),
		})
	}
	return c.JSON(digest)
}
