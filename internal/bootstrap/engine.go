// Package bootstrap builds the scoring engine from configuration for both
// the HTTP service and the command line client.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/cro-score-api/internal/config"
	"github.com/noah-isme/cro-score-api/internal/scoring"
	"github.com/noah-isme/cro-score-api/internal/scoring/heuristic"
	"github.com/noah-isme/cro-score-api/internal/scoring/semantic"
	"github.com/noah-isme/cro-score-api/pkg/ai"
)

// Logger returns the root logger at the configured level.
func Logger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

// ModePreference maps the mock switch to an engine preference.
func ModePreference(cfg config.Config) scoring.ModePreference {
	if cfg.UseMock {
		return scoring.ForceHeuristic
	}
	return scoring.PreferSemantic
}

// NewCompleter builds the completer for the configured provider.
func NewCompleter(cfg config.Config, logger zerolog.Logger) (ai.Completer, error) {
	switch cfg.AIProvider {
	case config.ProviderAnthropic:
		return ai.NewAnthropicCompleter(ai.AnthropicConfig{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
			Logger:      logger,
		})
	case config.ProviderOpenAI:
		return ai.NewOpenAICompleter(ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: cfg.AITemperature,
			Logger:      logger,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}
}

// NewEngine wires the heuristic evaluator and, when mock mode is off and a
// key is configured, the semantic evaluator.
func NewEngine(cfg config.Config, logger zerolog.Logger) (*scoring.Engine, error) {
	opts := []scoring.EngineOption{scoring.WithLogger(logger)}

	switch {
	case cfg.UseMock:
		logger.Info().Msg("mock mode enabled, semantic evaluator disabled")
	case cfg.ProviderAPIKey() == "":
		logger.Warn().Str("provider", cfg.AIProvider).Msg("no api key configured, semantic evaluator disabled")
	default:
		completer, err := NewCompleter(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create completer: %w", err)
		}
		evaluator, err := semantic.New(completer, semantic.Config{
			HTMLLimit: cfg.PromptHTMLLimit,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create semantic evaluator: %w", err)
		}
		opts = append(opts, scoring.WithSemantic(evaluator))
	}

	return scoring.NewEngine(heuristic.New(), opts...), nil
}
