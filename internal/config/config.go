package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var defaultCORSOrigins = []string{
	"http://127.0.0.1:8000", "http://localhost:8000",
	"http://127.0.0.1:8001", "http://localhost:8001",
	"http://127.0.0.1:5500", "http://localhost:5500",
}

// Config holds runtime configuration values for the scoring service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	LogLevel        string
	UseMock         bool
	AIProvider      string
	AIModel         string
	AITemperature   float32
	AIMaxTokens     int
	OpenAIAPIKey    string
	AnthropicAPIKey string
	PromptHTMLLimit int
	MaxBodyBytes    int
	CORSOrigins     []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ProviderAPIKey returns the key configured for the selected AI provider.
func (c Config) ProviderAPIKey() string {
	switch c.AIProvider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CRO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unprefixed names are accepted for compatibility with existing deployments.
	_ = v.BindEnv("use_mock", "CRO_USE_MOCK", "USE_MOCK")
	_ = v.BindEnv("openai_api_key", "CRO_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic_api_key", "CRO_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	v.SetDefault("app.name", "CRO Scoring API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("use_mock", false)
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("prompt.html_limit", 60000)
	v.SetDefault("max_body_bytes", 5*1024*1024)
	v.SetDefault("cors.origins", strings.Join(defaultCORSOrigins, ","))

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		UseMock:         v.GetBool("use_mock"),
		AIProvider:      strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		AIModel:         v.GetString("ai.model"),
		AITemperature:   float32(v.GetFloat64("ai.temperature")),
		AIMaxTokens:     v.GetInt("ai.max_tokens"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		PromptHTMLLimit: v.GetInt("prompt.html_limit"),
		MaxBodyBytes:    v.GetInt("max_body_bytes"),
		CORSOrigins:     splitList(v.GetString("cors.origins")),
	}

	switch cfg.AIProvider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.AITemperature < 0 || cfg.AITemperature > 2 {
		return Config{}, fmt.Errorf("ai temperature must be between 0 and 2")
	}

	if cfg.AIMaxTokens <= 0 {
		cfg.AIMaxTokens = 1024
	}

	if cfg.PromptHTMLLimit <= 0 {
		cfg.PromptHTMLLimit = 60000
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 * 1024 * 1024
	}

	return cfg, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
