package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// Config customises the middleware registration pipeline.
type Config struct {
	Logger      *zerolog.Logger
	CORSOrigins []string
}

// Register attaches the common middlewares used across the API.
func Register(app *fiber.App, cfg Config) {
	requestLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		requestLogger = *cfg.Logger
	}

	origins := "*"
	if len(cfg.CORSOrigins) > 0 {
		origins = strings.Join(cfg.CORSOrigins, ",")
	}

	app.Use(recover.New())
	app.Use(CorrelationID(requestLogger))
	app.Use(Observability(requestLogger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: origins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Correlation-ID, X-Request-ID",
		AllowMethods:     "GET,POST,OPTIONS",
	}))
}
