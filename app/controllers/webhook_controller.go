package controllers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ReplyHive/ReplyHive/internal/pkg/env"
	"github.com/ReplyHive/ReplyHive/internal/pkg/webhook"
)

// WebhookController serves the platform's verification handshake and the
// delivery endpoint.
type WebhookController struct {
	ingestor *webhook.Ingestor
}

// NewWebhookController creates the controller over an injected ingestor.
func NewWebhookController(ingestor *webhook.Ingestor) *WebhookController {
	return &WebhookController{ingestor: ingestor}
}

// HandleVerify answers the GET subscription handshake. The platform sends
// hub.mode=subscribe with our verify token and expects the challenge echoed
// back verbatim.
func (wc *WebhookController) HandleVerify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	expected := env.GetEnv("WEBHOOK_VERIFY_TOKEN", "")
	if mode == "subscribe" && expected != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
		log.Info("[Webhook] Subscription handshake verified")
		return c.SendString(challenge)
	}

	log.Warnf("[Webhook] Handshake rejected: mode=%s", mode)
	return c.SendStatus(fiber.StatusForbidden)
}

// HandleDelivery accepts a webhook POST. It always answers 200 with the
// body EVENT_RECEIVED so the platform does not disable the subscription;
// failures are logged and recoverable through the retry endpoint instead.
func (wc *WebhookController) HandleDelivery(c *fiber.Ctx) error {
	body := c.Body()

	signature := c.Get("X-Hub-Signature-256")
	if signature == "" {
		signature = c.Get("X-Hub-Signature")
	}

	secret := env.GetEnv("PLATFORM_APP_SECRET", "")
	if secret == "" {
		log.Warn("[Webhook] PLATFORM_APP_SECRET not set, accepting delivery unverified")
	} else if !webhook.VerifySignature(body, signature, secret) {
		log.Warn("[Webhook] Delivery signature verification failed")
		if env.GetEnvBool("WEBHOOK_REJECT_INVALID", false) {
			// Acknowledge without processing so the sender does not retry.
			return c.SendString("EVENT_RECEIVED")
		}
	}

	recorded, err := wc.ingestor.Ingest(body)
	if err != nil {
		log.Errorf("[Webhook] Failed to ingest delivery: %v", err)
	} else if recorded > 0 {
		log.Debugf("[Webhook] Recorded %d event(s)", recorded)
	}

	return c.SendString("EVENT_RECEIVED")
}
