package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cro-score-api/internal/config"
	"github.com/noah-isme/cro-score-api/internal/service"
	"github.com/noah-isme/cro-score-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	Service         string    `json:"service"`
	Environment     string    `json:"environment"`
	Mock            bool      `json:"mock"`
	Provider        string    `json:"provider"`
	SemanticEnabled bool      `json:"semantic_enabled"`
}

// StatusReporter exposes the scoring configuration for health probes.
type StatusReporter interface {
	Status() service.ScoringStatus
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, status StatusReporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Mock:        cfg.UseMock,
			Provider:    cfg.AIProvider,
		}
		if status != nil {
			s := status.Status()
			payload.Mock = s.Mock
			payload.SemanticEnabled = s.SemanticEnabled
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// Healthz is the bare liveness probe.
func Healthz(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "mock": cfg.UseMock})
	}
}
