package handlers

import (
	"mindwave/internal/models"
	"mindwave/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PushHandler manages Web Push subscriptions
type PushHandler struct {
	push *services.PushService
}

// NewPushHandler creates a new push handler
func NewPushHandler(push *services.PushService) *PushHandler {
	return &PushHandler{push: push}
}

func (h *PushHandler) disabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Push notifications not configured",
	})
}

// VAPIDKey returns the public key clients subscribe with.
// GET /api/v1/push/vapid
func (h *PushHandler) VAPIDKey(c *fiber.Ctx) error {
	if h.push == nil {
		return h.disabled(c)
	}
	return c.JSON(fiber.Map{
		"public_key": h.push.PublicKey(),
	})
}

// Subscribe registers a browser subscription.
// POST /api/v1/push/subscribe
func (h *PushHandler) Subscribe(c *fiber.Ctx) error {
	if h.push == nil {
		return h.disabled(c)
	}

	var req struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256DH string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription body",
		})
	}

	err := h.push.Subscribe(models.PushSubscription{
		Endpoint:  req.Endpoint,
		P256DH:    req.Keys.P256DH,
		Auth:      req.Keys.Auth,
		UserAgent: c.Get("User-Agent"),
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to subscribe: " + err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"subscribed": true})
}

// Unsubscribe removes a subscription by endpoint.
// POST /api/v1/push/unsubscribe
func (h *PushHandler) Unsubscribe(c *fiber.Ctx) error {
	if h.push == nil {
		return h.disabled(c)
	}
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.BodyParser(&req); err != nil || req.Endpoint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Endpoint is required",
		})
	}
	if err := h.push.Unsubscribe(req.Endpoint); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unsubscribe: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{"unsubscribed": true})
}

// Send pushes a notification to every subscriber.
// POST /api/v1/push/send
func (h *PushHandler) Send(c *fiber.Ctx) error {
	if h.push == nil {
		return h.disabled(c)
	}
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	sent := h.push.NotifyAll(c.Context(), req.Title, req.Body)
	return c.JSON(fiber.Map{"sent": sent})
}
