package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/config"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/database"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/handlers"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/middleware"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/queue"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/routes"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword)

	var inventoryClient *services.InventoryClient
	if cfg.InventoryServiceURL != "" {
		inventoryClient = services.NewInventoryClient(cfg.InventoryServiceURL)
	}
	inventoryService := services.NewInventoryService(db, inventoryClient)
	analyticsService := services.NewAnalyticsService(cfg.AnalyticsURL)
	router := services.NewTaskRouter(inventoryService, analyticsService)

	dispatcher := newDispatcher(cfg, router.Handle)
	defer dispatcher.Close()

	limiter := services.NewRateLimiter()
	stopSweeper := make(chan struct{})
	defer close(stopSweeper)
	limiter.StartSweeper(time.Minute, stopSweeper)

	app := fiber.New(fiber.Config{
		AppName:      "Sohrel Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.Monitoring())

	routes.Register(app, routes.Deps{
		DB:         db,
		Cfg:        cfg,
		Dispatcher: dispatcher,
		Limiter:    limiter,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down")
		_ = app.Shutdown()
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

func newDispatcher(cfg *config.Config, handler queue.Handler) queue.Dispatcher {
	if cfg.QueueDriver == "amqp" {
		dispatcher, err := queue.NewAMQPDispatcher(cfg.AMQPURL, cfg.TaskQueue, handler)
		if err != nil {
			log.Fatalf("failed to connect to AMQP: %v", err)
		}
		return dispatcher
	}

	return queue.NewMemoryDispatcher(handler, queue.MemoryOptions{
		Workers: cfg.QueueWorkers,
	})
}
