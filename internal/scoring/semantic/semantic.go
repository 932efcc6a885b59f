// Package semantic implements the evaluator that delegates judgement to a
// language model and enforces a strict output schema on its answer.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdhtml "html"
	"math"
	"math/big"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/cro-score-api/internal/scoring"
	"github.com/noah-isme/cro-score-api/pkg/ai"
)

// DefaultHTMLLimit bounds the page bytes embedded in a prompt.
const DefaultHTMLLimit = 60000

// Config customises the semantic evaluator.
type Config struct {
	HTMLLimit int
	Logger    zerolog.Logger
}

// Evaluator scores pages through an ai.Completer.
type Evaluator struct {
	completer ai.Completer
	prompts   *promptBuilder
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// New wraps completer as a scoring.Evaluator.
func New(completer ai.Completer, cfg Config) (*Evaluator, error) {
	if completer == nil {
		return nil, fmt.Errorf("semantic evaluator requires a completer")
	}
	if cfg.HTMLLimit == 0 {
		cfg.HTMLLimit = DefaultHTMLLimit
	}

	return &Evaluator{
		completer: completer,
		prompts:   newPromptBuilder(cfg.HTMLLimit),
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/cro-score-api/internal/scoring/semantic"),
		logger:    cfg.Logger.With().Str("component", "semantic_evaluator").Str("provider", completer.Provider()).Logger(),
	}, nil
}

// Evaluate asks the model for every criterion at once. Upstream failures are
// reported as ErrUpstreamUnavailable, malformed answers as ErrSchemaViolation.
func (e *Evaluator) Evaluate(parent context.Context, page scoring.Page, criteria []scoring.Criterion) (scoring.Result, error) {
	ctx, span := e.tracer.Start(parent, "semantic.evaluate", trace.WithAttributes(
		attribute.String("provider", e.completer.Provider()),
		attribute.Int("criteria", len(criteria)),
	))
	defer span.End()

	schema, err := buildSchema(criteria)
	if err != nil {
		span.RecordError(err)
		return scoring.Result{}, err
	}

	resp, err := e.completer.Complete(ctx, ai.Request{
		System:     systemPrompt,
		Prompt:     e.prompts.build(page, criteria),
		SchemaName: "cro_scores",
		Schema:     schema.raw,
	})
	if err != nil {
		classified := classify(ctx, err)
		span.RecordError(classified)
		span.SetStatus(codes.Error, classified.Error())
		return scoring.Result{}, classified
	}

	scores, notes, err := e.parse(resp.Content, schema, criteria)
	if err != nil {
		violation := scoring.NewError(scoring.KindSchemaViolation, "model response does not match the score schema", err)
		span.RecordError(violation)
		span.SetStatus(codes.Error, violation.Error())
		e.logger.Warn().Err(err).Str("model", resp.Model).Msg("rejected model response")
		return scoring.Result{}, violation
	}

	return scoring.NewResult(scoring.ModeSemantic, scores, notes), nil
}

func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return scoring.Cancelled(ctxErr)
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return scoring.Cancelled(err)
	case errors.Is(err, ai.ErrEmptyResponse):
		return scoring.NewError(scoring.KindSchemaViolation, "model returned no content", err)
	default:
		return scoring.NewError(scoring.KindUpstreamUnavailable, "language model unavailable", err)
	}
}

type modelScore struct {
	Score       json.Number `json:"score"`
	Rationale   string      `json:"rationale"`
	Suggestions []string    `json:"suggestions"`
}

type modelResponse struct {
	Scores map[string]modelScore `json:"scores"`
	Notes  string                `json:"notes"`
}

func (e *Evaluator) parse(content string, schema responseSchema, criteria []scoring.Criterion) ([]scoring.CriterionScore, string, error) {
	payload := extractJSON(content)
	if err := schema.validate(payload); err != nil {
		return nil, "", err
	}

	var data modelResponse
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, "", fmt.Errorf("decode scores: %w", err)
	}

	scores := make([]scoring.CriterionScore, 0, len(criteria))
	for _, c := range criteria {
		raw, ok := data.Scores[c.Key]
		if !ok {
			return nil, "", fmt.Errorf("missing criterion %q", c.Key)
		}

		score, err := clampNumber(raw.Score)
		if err != nil {
			return nil, "", fmt.Errorf("criterion %q: %w", c.Key, err)
		}

		rationale := e.clean(raw.Rationale)
		if rationale == "" {
			return nil, "", fmt.Errorf("criterion %q has an empty rationale", c.Key)
		}

		suggestions := make([]string, 0, len(raw.Suggestions))
		for _, s := range raw.Suggestions {
			if cleaned := e.clean(s); cleaned != "" {
				suggestions = append(suggestions, cleaned)
			}
		}

		scores = append(scores, scoring.CriterionScore{
			Key:         c.Key,
			Score:       score,
			Rationale:   rationale,
			Suggestions: suggestions,
		})
	}

	return scores, e.clean(data.Notes), nil
}

// clean strips markup the model may echo back from the page. Bare tag
// mentions such as "<button>" with no matching closing tag are prose and are
// kept as text.
func (e *Evaluator) clean(s string) string {
	return strings.TrimSpace(stdhtml.UnescapeString(e.sanitizer.Sanitize(protectTagMentions(s))))
}

var bareTag = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)\s*/?>`)

// Elements whose content must never survive as text.
var strippedElements = map[string]struct{}{
	"script": {}, "style": {}, "iframe": {}, "object": {}, "embed": {}, "noscript": {}, "template": {},
}

func protectTagMentions(s string) string {
	lower := strings.ToLower(s)
	return bareTag.ReplaceAllStringFunc(s, func(token string) string {
		name := strings.ToLower(bareTag.FindStringSubmatch(token)[1])
		if _, ok := strippedElements[name]; ok {
			return token
		}

		var paired bool
		if strings.HasPrefix(token, "</") {
			paired = strings.Contains(lower, "<"+name+">") || strings.Contains(lower, "<"+name+" ")
		} else {
			paired = strings.Contains(lower, "</"+name)
		}
		if paired {
			return token
		}
		return "&lt;" + token[1:]
	})
}

// clampNumber forces a JSON number into the score range. The schema has
// already checked that it is an integer, so only magnitude matters here.
func clampNumber(n json.Number) (int, error) {
	value, ok := new(big.Rat).SetString(n.String())
	if !ok {
		return 0, fmt.Errorf("score %q is not a number", n)
	}
	switch {
	case value.Cmp(big.NewRat(scoring.MinScore, 1)) < 0:
		return scoring.MinScore, nil
	case value.Cmp(big.NewRat(scoring.MaxScore, 1)) > 0:
		return scoring.MaxScore, nil
	}
	f, _ := value.Float64()
	return int(math.Round(f)), nil
}
