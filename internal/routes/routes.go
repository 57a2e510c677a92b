package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/venuebook/internal/config"
	"github.com/example/venuebook/internal/handlers"
	"github.com/example/venuebook/internal/middleware"
	"github.com/example/venuebook/internal/models"
	"github.com/example/venuebook/internal/services"
)

// Register wires up all HTTP routes. gatherer serves /metrics; nil skips it.
func Register(app *fiber.App, authService *services.AuthService, cfg *config.Config, gatherer prometheus.Gatherer) {
	authHandler := handlers.NewAuthHandler(authService, cfg)
	profileHandler := handlers.NewProfileHandler(authService)
	adminHandler := handlers.NewAdminHandler(authService)

	protect := middleware.Protect(authService)
	authLimit := middleware.RateLimit(cfg.AuthRateLimitMax, cfg.RateLimitWindow)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(handlers.Envelope{Status: "success", Message: "ok"})
	})
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", middleware.RateLimit(cfg.RateLimitMax, cfg.RateLimitWindow))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", authLimit, authHandler.Signup)
	auth.Post("/login", authLimit, authHandler.Login)
	auth.Post("/logout", protect, authHandler.Logout)
	auth.Post("/refresh-token", authHandler.RefreshToken)
	auth.Post("/verify-email", authHandler.VerifyEmail)
	auth.Post("/resend-verification", authLimit, authHandler.ResendVerification)
	auth.Post("/forgot-password", authLimit, authHandler.ForgotPassword)
	auth.Post("/reset-password", authLimit, authHandler.ResetPassword)

	auth.Get("/me", protect, profileHandler.Me)
	auth.Put("/update-profile", protect, profileHandler.UpdateProfile)
	auth.Put("/change-password", protect, profileHandler.ChangePassword)
	auth.Delete("/delete-account", protect, profileHandler.DeleteAccount)

	// Admin routes
	admin := api.Group("/admin", protect, middleware.Authorize(models.RoleAdmin))
	admin.Get("/accounts", adminHandler.ListAccounts)
	admin.Get("/stats", adminHandler.Stats)
}
