package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cro-score-api/internal/dto"
	"github.com/noah-isme/cro-score-api/internal/scoring"
)

// ScoringEngine is the subset of scoring.Engine the service depends on.
type ScoringEngine interface {
	Score(ctx context.Context, req scoring.Request, pref scoring.ModePreference) (scoring.Result, error)
	Compare(ctx context.Context, req scoring.CompareRequest, pref scoring.ModePreference) (scoring.CompareResult, error)
	Registry() *scoring.Registry
	SemanticEnabled() bool
}

// ScoringService validates requests and runs them through the engine.
type ScoringService interface {
	Score(ctx context.Context, payload dto.ScoreRequest) (dto.ScoreResponse, error)
	Compare(ctx context.Context, payload dto.CompareRequest) (dto.CompareResponse, error)
	Criteria() []dto.CriterionResponse
	Status() ScoringStatus
}

// ScoringStatus reports how the service is configured.
type ScoringStatus struct {
	Mock            bool `json:"mock"`
	SemanticEnabled bool `json:"semantic_enabled"`
}

type scoringService struct {
	engine    ScoringEngine
	pref      scoring.ModePreference
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewScoringService constructs a ScoringService. pref is the process-wide
// mode switch and is applied to every request.
func NewScoringService(engine ScoringEngine, pref scoring.ModePreference, validate *validator.Validate, logger zerolog.Logger) ScoringService {
	return &scoringService{
		engine:    engine,
		pref:      pref,
		validator: validate,
		logger:    logger.With().Str("component", "scoring_service").Logger(),
	}
}

func (s *scoringService) Score(ctx context.Context, payload dto.ScoreRequest) (dto.ScoreResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreResponse{}, err
	}

	start := time.Now()
	result, err := s.engine.Score(ctx, scoring.Request{
		HTML:     payload.HTML,
		URL:      payload.URL,
		Criteria: payload.Criteria,
	}, s.pref)
	if err != nil {
		return dto.ScoreResponse{}, err
	}

	order := s.order(payload.Criteria)
	s.logger.Info().
		Str("mode", string(result.Mode)).
		Int("overall_score", result.OverallScore).
		Strs("criteria", order).
		Dur("duration", time.Since(start)).
		Msg("page scored")

	return dto.NewScoreResponse(result, order), nil
}

func (s *scoringService) Compare(ctx context.Context, payload dto.CompareRequest) (dto.CompareResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CompareResponse{}, err
	}

	start := time.Now()
	result, err := s.engine.Compare(ctx, scoring.CompareRequest{
		BeforeHTML: payload.BeforeHTML,
		AfterHTML:  payload.AfterHTML,
		URL:        payload.URL,
		Criteria:   payload.Criteria,
	}, s.pref)
	if err != nil {
		return dto.CompareResponse{}, err
	}

	order := s.order(payload.Criteria)
	s.logger.Info().
		Str("verdict", string(result.Verdict)).
		Int("overall_delta", result.OverallDelta).
		Str("before_mode", string(result.Before.Mode)).
		Str("after_mode", string(result.After.Mode)).
		Dur("duration", time.Since(start)).
		Msg("pages compared")

	return dto.NewCompareResponse(result, order), nil
}

func (s *scoringService) Criteria() []dto.CriterionResponse {
	return dto.NewCriterionResponses(s.engine.Registry().All())
}

func (s *scoringService) Status() ScoringStatus {
	return ScoringStatus{
		Mock:            s.pref == scoring.ForceHeuristic,
		SemanticEnabled: s.pref != scoring.ForceHeuristic && s.engine.SemanticEnabled(),
	}
}

// order returns the evaluated keys in request order. It is only called after
// the engine accepted the keys, so resolution cannot fail here.
func (s *scoringService) order(keys []string) []string {
	criteria, err := s.engine.Registry().Resolve(keys)
	if err != nil {
		return nil
	}
	order := make([]string, len(criteria))
	for i, c := range criteria {
		order[i] = c.Key
	}
	return order
}
