package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ReplyHive/ReplyHive/internal/pkg/jobqueue"
)

// QueueController exposes the queue monitor endpoint.
type QueueController struct {
	manager *jobqueue.Manager
}

// NewQueueController creates the controller over an injected queue manager.
func NewQueueController(manager *jobqueue.Manager) *QueueController {
	return &QueueController{manager: manager}
}

// HandleQueueStats returns depth and lifetime counters for both queues.
func (qc *QueueController) HandleQueueStats(c *fiber.Ctx) error {
	result := fiber.Map{"running": qc.manager.IsRunning()}

	for _, queue := range []*jobqueue.Queue{qc.manager.WebhookQueue(), qc.manager.DMQueue()} {
		snapshot, err := qc.queueSnapshot(c, queue)
		if err != nil {
			log.Errorf("[Queues] Stats for %s failed: %v", queue.Name(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal", "message": "failed to read queue stats"})
		}
		result[queue.Name()] = snapshot
	}

	return c.JSON(result)
}

func (qc *QueueController) queueSnapshot(c *fiber.Ctx, queue *jobqueue.Queue) (fiber.Map, error) {
	ctx := c.UserContext()

	pending, err := queue.PendingSize(ctx)
	if err != nil {
		return nil, err
	}
	processing, err := queue.ProcessingSize(ctx)
	if err != nil {
		return nil, err
	}
	scheduled, err := queue.ScheduledSize(ctx)
	if err != nil {
		return nil, err
	}
	dead, err := queue.DeadSize(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := queue.GetStats(ctx)
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"pending":    pending,
		"processing": processing,
		"scheduled":  scheduled,
		"dead":       dead,
		"totals":     stats,
	}, nil
}
