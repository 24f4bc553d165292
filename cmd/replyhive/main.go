package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ReplyHive/ReplyHive/app/controllers"
	"github.com/ReplyHive/ReplyHive/app/repository"
	"github.com/ReplyHive/ReplyHive/internal/pkg/cache"
	"github.com/ReplyHive/ReplyHive/internal/pkg/database"
	"github.com/ReplyHive/ReplyHive/internal/pkg/env"
	"github.com/ReplyHive/ReplyHive/internal/pkg/jobqueue"
	"github.com/ReplyHive/ReplyHive/internal/pkg/platform"
	"github.com/ReplyHive/ReplyHive/internal/pkg/quota"
	"github.com/ReplyHive/ReplyHive/internal/pkg/router"
	"github.com/ReplyHive/ReplyHive/internal/pkg/webhook"
)

func main() {
	app, manager := NewApplication()

	manager.Start()

	// Drain workers before the HTTP listener goes away.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		manager.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

// NewApplication wires the full dependency graph and returns the HTTP app
// plus the queue manager that drives the workers.
func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repos := repository.NewFactory(database.GetDB()).GetRepositories()
	gate := quota.NewGate(repos)
	client := platform.NewClientFromEnv()
	manager := jobqueue.NewManager(cache.GetClient(), repos, gate, client, jobqueue.ManagerOptions{})
	ingestor := webhook.NewIngestor(repos, manager)

	app := fiber.New(fiber.Config{
		AppName: "ReplyHive",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app,
		router.NewWebhookRouter(controllers.NewWebhookController(ingestor)),
		router.NewApiRouter(
			controllers.NewEventController(repos.Event, ingestor),
			controllers.NewQueueController(manager),
		),
	)

	return app, manager
}
