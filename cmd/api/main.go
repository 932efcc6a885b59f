package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cro-score-api/internal/bootstrap"
	"github.com/noah-isme/cro-score-api/internal/config"
	"github.com/noah-isme/cro-score-api/internal/handler"
	"github.com/noah-isme/cro-score-api/internal/middleware"
	"github.com/noah-isme/cro-score-api/internal/router"
	"github.com/noah-isme/cro-score-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := bootstrap.Logger(cfg)

	engine, err := bootstrap.NewEngine(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build scoring engine: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	scoringService := service.NewScoringService(engine, bootstrap.ModePreference(cfg), validate, logger)
	scoreHandler := handler.NewScoreHandler(scoringService, int64(cfg.MaxBodyBytes), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.MaxBodyBytes,
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		CORSOrigins: cfg.CORSOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		ScoreHandler: scoreHandler,
		Status:       scoringService,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().
		Str("address", cfg.HTTPAddress()).
		Bool("mock", cfg.UseMock).
		Bool("semantic_enabled", engine.SemanticEnabled()).
		Msg("server started")

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
