package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cro-score-api/internal/config"
	"github.com/noah-isme/cro-score-api/internal/handler"
	"github.com/noah-isme/cro-score-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScoreHandler *handler.ScoreHandler
	Status       handler.StatusReporter
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/healthz", handler.Healthz(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Status))

	if deps.ScoreHandler != nil {
		deps.ScoreHandler.Register(api)
	}
}
