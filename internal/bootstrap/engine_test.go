package bootstrap

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cro-score-api/internal/config"
	"github.com/noah-isme/cro-score-api/internal/scoring"
	"github.com/noah-isme/cro-score-api/pkg/ai"
)

func TestNewEngineWiresSemanticOnlyWithKey(t *testing.T) {
	cases := []struct {
		name     string
		cfg      config.Config
		semantic bool
	}{
		{"mock", config.Config{UseMock: true, AIProvider: config.ProviderOpenAI, OpenAIAPIKey: "k"}, false},
		{"no key", config.Config{AIProvider: config.ProviderOpenAI}, false},
		{"openai", config.Config{AIProvider: config.ProviderOpenAI, OpenAIAPIKey: "k"}, true},
		{"anthropic", config.Config{AIProvider: config.ProviderAnthropic, AnthropicAPIKey: "k"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := NewEngine(tc.cfg, zerolog.Nop())
			require.NoError(t, err)
			require.Equal(t, tc.semantic, engine.SemanticEnabled())
		})
	}
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	completer, err := NewCompleter(config.Config{AIProvider: config.ProviderAnthropic, AnthropicAPIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &ai.AnthropicCompleter{}, completer)

	_, err = NewCompleter(config.Config{AIProvider: "cohere"}, zerolog.Nop())
	require.Error(t, err)
}

func TestModePreference(t *testing.T) {
	require.Equal(t, scoring.ForceHeuristic, ModePreference(config.Config{UseMock: true}))
	require.Equal(t, scoring.PreferSemantic, ModePreference(config.Config{}))
}
