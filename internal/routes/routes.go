package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/config"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/handlers"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/middleware"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/queue"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
)

// Deps carries the shared infrastructure handed to route registration.
type Deps struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Dispatcher queue.Dispatcher
	Limiter    *services.RateLimiter
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	sessionService := services.NewSessionService(deps.DB, deps.Cfg.GuestSessionTTL)
	checkoutService := services.NewCheckoutService(deps.DB)
	statusService := services.NewStatusService(deps.DB, deps.Dispatcher, deps.Cfg.StrictTransitions)

	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, sessionService, deps.Dispatcher)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	codHandler := handlers.NewCODHandler(services.DefaultCODConfig())
	adminHandler := handlers.NewAdminHandler(deps.DB, deps.Cfg, statusService)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Post("/checkout",
		middleware.RateLimit(deps.Limiter, deps.Cfg.CheckoutRateLimit, deps.Cfg.CheckoutRateWindow),
		checkoutHandler.Checkout)
	api.Get("/orders/:number", checkoutHandler.GetOrder)

	api.Get("/cod/quote", codHandler.Quote)

	api.Post("/guest-session",
		middleware.RateLimit(deps.Limiter, deps.Cfg.SessionRateLimit, deps.Cfg.SessionRateWindow),
		sessionHandler.Handle)

	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)

	protected := admin.Group("", middleware.AdminAuthMiddleware(deps.Cfg))
	protected.Post("/orders/status", adminHandler.UpdateStatus)
	protected.Get("/orders", adminHandler.ListOrders)
	protected.Get("/orders/:id/history", adminHandler.GetOrderHistory)
}
