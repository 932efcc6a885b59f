package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerAnthropic = "anthropic"

// AnthropicConfig defines configuration options for the Anthropic completer.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// AnthropicCompleter implements Completer against the Anthropic messages API.
// The API has no native response schema, so the schema is appended to the
// system prompt and enforced by the caller.
type AnthropicCompleter struct {
	client anthropic.Client
	cfg    AnthropicConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicCompleter constructs a new completer.
func NewAnthropicCompleter(cfg AnthropicConfig) (*AnthropicCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicCompleter{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/cro-score-api/pkg/ai/anthropic"),
		logger: cfg.Logger.With().Str("component", "anthropic_completer").Logger(),
	}, nil
}

// Provider names the upstream vendor.
func (c *AnthropicCompleter) Provider() string {
	return providerAnthropic
}

// Complete sends one message and returns the concatenated text blocks.
func (c *AnthropicCompleter) Complete(parent context.Context, req Request) (Response, error) {
	ctx, span := c.tracer.Start(parent, "anthropic.complete", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	system := req.System
	if len(req.Schema) > 0 {
		system += "\n\nThe response MUST be a single JSON object matching this JSON schema, with no surrounding prose:\n" + string(req.Schema)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(float64(c.cfg.Temperature)),
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	aiDuration.WithLabelValues(providerAnthropic, c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Response{}, c.fail(span, fmt.Errorf("anthropic complete: %w", err))
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(text.String())
	if content == "" {
		return Response{}, c.fail(span, ErrEmptyResponse)
	}

	out := Response{
		Content:      content,
		Model:        string(message.Model),
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}
	recordUsage(providerAnthropic, c.cfg.Model, out)

	c.logger.Debug().
		Str("model", out.Model).
		Int64("input_tokens", out.InputTokens).
		Int64("output_tokens", out.OutputTokens).
		Msg("anthropic completion finished")

	return out, nil
}

func (c *AnthropicCompleter) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(providerAnthropic, c.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
