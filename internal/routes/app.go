package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/example/venuebook/internal/config"
	"github.com/example/venuebook/internal/handlers"
	"github.com/example/venuebook/internal/metrics"
	"github.com/example/venuebook/internal/services"
)

// NewApp builds the fiber application with error handling, panic recovery,
// access logging outside tests, request metrics and every route registered.
func NewApp(authService *services.AuthService, cfg *config.Config, log *zap.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "VenueBook API",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	if cfg.AppEnv != "test" {
		app.Use(logger.New())
	}
	if m != nil {
		app.Use(m.Middleware())
	}

	Register(app, authService, cfg, gatherer)
	return app
}
