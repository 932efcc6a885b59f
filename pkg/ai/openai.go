package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI completer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAICompleter implements Completer against the OpenAI chat completion API.
type OpenAICompleter struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAICompleter builds a new completer using the provided configuration.
func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/cro-score-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_completer").Logger(),
	}, nil
}

// Provider names the upstream vendor.
func (c *OpenAICompleter) Provider() string {
	return providerOpenAI
}

// Complete sends one chat completion. When req.Schema is set the model is
// constrained with a strict json_schema response format.
func (c *OpenAICompleter) Complete(parent context.Context, req Request) (Response, error) {
	ctx, span := c.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: responseFormat(req),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(providerOpenAI, c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Response{}, c.fail(span, fmt.Errorf("openai complete: %w", err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Response{}, c.fail(span, ErrEmptyResponse)
	}

	out := Response{
		Content:      strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:        resp.Model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}
	recordUsage(providerOpenAI, c.cfg.Model, out)

	c.logger.Debug().
		Str("model", out.Model).
		Int64("input_tokens", out.InputTokens).
		Int64("output_tokens", out.OutputTokens).
		Msg("openai completion finished")

	return out, nil
}

func (c *OpenAICompleter) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(providerOpenAI, c.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func responseFormat(req Request) *openai.ChatCompletionResponseFormat {
	if len(req.Schema) == 0 {
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: req.Schema,
			Strict: true,
		},
	}
}
