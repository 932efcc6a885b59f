package scoring

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const (
	notesForcedHeuristic = "Mock mode: heuristic scoring"
	notesNoSemantic      = "Semantic evaluator not configured: heuristic scoring"
	notesFallbackPrefix  = "Heuristic fallback: "
)

var (
	scoringResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cro",
		Subsystem: "scoring",
		Name:      "results_total",
		Help:      "Number of score results produced, by evaluator mode",
	}, []string{"mode"})

	scoringFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cro",
		Subsystem: "scoring",
		Name:      "fallbacks_total",
		Help:      "Number of semantic evaluations replaced by the heuristic evaluator",
	})

	scoringFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cro",
		Subsystem: "scoring",
		Name:      "failures_total",
		Help:      "Number of scoring calls that returned an error, by kind",
	}, []string{"kind"})
)

// Engine dispatches score requests to the configured evaluators and owns the
// fallback policy between them.
type Engine struct {
	registry  *Registry
	heuristic Evaluator
	semantic  Evaluator
	logger    zerolog.Logger
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithSemantic enables the semantic evaluator.
func WithSemantic(evaluator Evaluator) EngineOption {
	return func(e *Engine) {
		e.semantic = evaluator
	}
}

// WithRegistry overrides the default criteria registry.
func WithRegistry(registry *Registry) EngineOption {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine builds an engine around the always-available heuristic evaluator.
func NewEngine(heuristic Evaluator, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:  DefaultRegistry(),
		heuristic: heuristic,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "scoring_engine").Logger()
	return e
}

// Registry exposes the criteria catalogue used by the engine.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// SemanticEnabled reports whether a semantic evaluator is wired.
func (e *Engine) SemanticEnabled() bool {
	return e.semantic != nil
}

// Score evaluates one page. With PreferSemantic the semantic evaluator is
// tried first and an upstream outage falls back to heuristics; schema
// violations and cancellations are returned to the caller.
func (e *Engine) Score(ctx context.Context, req Request, pref ModePreference) (Result, error) {
	result, err := e.score(ctx, req, pref)
	if err != nil {
		scoringFailures.WithLabelValues(string(KindOf(err))).Inc()
		return Result{}, err
	}
	scoringResults.WithLabelValues(string(result.Mode)).Inc()
	return result, nil
}

func (e *Engine) score(ctx context.Context, req Request, pref ModePreference) (Result, error) {
	if err := checkContext(ctx); err != nil {
		return Result{}, err
	}
	if req.HTML == "" {
		return Result{}, NewError(KindInvalidRequest, "html is required", nil)
	}

	criteria, err := e.registry.Resolve(req.Criteria)
	if err != nil {
		return Result{}, err
	}

	page := Page{HTML: req.HTML, URL: req.URL}

	if pref == ForceHeuristic {
		return e.runHeuristic(ctx, page, criteria, notesForcedHeuristic)
	}
	if e.semantic == nil {
		return e.runHeuristic(ctx, page, criteria, notesNoSemantic)
	}

	result, err := e.semantic.Evaluate(ctx, page, criteria)
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, Cancelled(ctxErr)
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		return Result{}, err
	}

	scoringFallbacks.Inc()
	e.loggerFor(ctx).Warn().Err(err).Str("url", req.URL).Msg("semantic evaluator unavailable, using heuristic evaluator")
	return e.runHeuristic(ctx, page, criteria, notesFallbackPrefix+err.Error())
}

func (e *Engine) runHeuristic(ctx context.Context, page Page, criteria []Criterion, notes string) (Result, error) {
	result, err := e.heuristic.Evaluate(ctx, page, criteria)
	if err != nil {
		return Result{}, err
	}
	result.Mode = ModeHeuristic
	result.Notes = notes
	return result, nil
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (e *Engine) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		scoped := l.With().Str("component", "scoring_engine").Logger()
		return &scoped
	}
	return &e.logger
}
