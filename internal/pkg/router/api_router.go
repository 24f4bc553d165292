package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ReplyHive/ReplyHive/app/controllers"
	"github.com/ReplyHive/ReplyHive/internal/pkg/cache"
	"github.com/ReplyHive/ReplyHive/internal/pkg/env"
)

// ApiRouter serves the operator API under /api/v1 behind a Redis-backed
// rate limiter, so the limit holds across instances.
type ApiRouter struct {
	events *controllers.EventController
	queues *controllers.QueueController
}

func NewApiRouter(events *controllers.EventController, queues *controllers.QueueController) *ApiRouter {
	return &ApiRouter{events: events, queues: queues}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 120),
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))

	v1 := api.Group("/v1")
	v1.Get("/events", h.events.HandleListEvents)
	v1.Post("/events/:id/retry", h.events.HandleRetryEvent)
	v1.Get("/queues/stats", h.queues.HandleQueueStats)
}

// newLimiterStorage derives a fiber storage from the shared cache client.
// Database 1 keeps limiter counters out of the job queue keyspace.
func newLimiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
