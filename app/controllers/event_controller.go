package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/repository"
	"github.com/ReplyHive/ReplyHive/internal/pkg/webhook"
)

const (
	defaultEventPageSize = 25
	maxEventPageSize     = 100
)

// EventController exposes the recorded webhook events and the operator
// retry action.
type EventController struct {
	events   repository.EventRepository
	ingestor *webhook.Ingestor
}

// NewEventController creates the controller over injected collaborators.
func NewEventController(events repository.EventRepository, ingestor *webhook.Ingestor) *EventController {
	return &EventController{events: events, ingestor: ingestor}
}

// tenantFromHeader reads the tenant scope from X-Tenant-ID. Authentication
// is handled upstream; this service only needs the scope.
func tenantFromHeader(c *fiber.Ctx) (uint, error) {
	raw := c.Get("X-Tenant-ID")
	if raw == "" {
		return 0, errors.New("X-Tenant-ID header missing")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("X-Tenant-ID header invalid")
	}
	return uint(id), nil
}

// HandleListEvents returns a paginated event listing. Supported query
// parameters: page, page_size, processed (true/false), type.
func (ec *EventController) HandleListEvents(c *fiber.Ctx) error {
	tenantID, err := tenantFromHeader(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", defaultEventPageSize)
	if pageSize < 1 || pageSize > maxEventPageSize {
		pageSize = defaultEventPageSize
	}

	var processed *bool
	if raw := c.Query("processed"); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "processed must be true or false"})
		}
		processed = &val
	}

	events, total, err := ec.events.List(tenantID, processed, c.Query("type"), (page-1)*pageSize, pageSize)
	if err != nil {
		log.Errorf("[Events] Listing failed for tenant %d: %v", tenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal", "message": "failed to list events"})
	}

	return c.JSON(fiber.Map{
		"events":    events,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// HandleRetryEvent re-enqueues a stored event so it runs through the
// pipeline again. The processed flag is reset until the new job finishes.
func (ec *EventController) HandleRetryEvent(c *fiber.Ctx) error {
	tenantID, err := tenantFromHeader(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	eventID, err := c.ParamsInt("id")
	if err != nil || eventID < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "event id invalid"})
	}

	event, err := ec.ingestor.Replay(tenantID, uint(eventID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "event not found"})
		}
		if errors.Is(err, webhook.ErrNoPlatformAccount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "tenant has no platform account"})
		}
		log.Errorf("[Events] Retry failed for event %d: %v", eventID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal", "message": "event could not be re-enqueued"})
	}

	log.Infof("[Events] Event %d re-enqueued for tenant %d", event.ID, tenantID)
	return c.JSON(fiber.Map{
		"message": "event re-enqueued",
		"event":   event,
	})
}
