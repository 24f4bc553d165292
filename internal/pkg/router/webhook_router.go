package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ReplyHive/ReplyHive/app/controllers"
)

// WebhookRouter serves the platform-facing endpoints. No rate limiting
// here: the sender disables subscriptions that answer slowly or with
// errors.
type WebhookRouter struct {
	webhook *controllers.WebhookController
}

func NewWebhookRouter(webhook *controllers.WebhookController) *WebhookRouter {
	return &WebhookRouter{webhook: webhook}
}

func (h *WebhookRouter) InstallRouter(app *fiber.App) {
	app.Get("/webhooks/instagram", h.webhook.HandleVerify)
	app.Post("/webhooks/instagram", h.webhook.HandleDelivery)
}
