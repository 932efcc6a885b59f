package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cro-score-api/internal/dto"
	"github.com/noah-isme/cro-score-api/internal/scoring"
	"github.com/noah-isme/cro-score-api/internal/scoring/heuristic"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestService(pref scoring.ModePreference) ScoringService {
	engine := scoring.NewEngine(heuristic.New())
	return NewScoringService(engine, pref, validator.New(), testLogger())
}

func TestScoringServiceValidatesPayload(t *testing.T) {
	svc := newTestService(scoring.ForceHeuristic)

	_, err := svc.Score(context.Background(), dto.ScoreRequest{})
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.Score(context.Background(), dto.ScoreRequest{HTML: "<p>x</p>", Criteria: []string{""}})
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.Compare(context.Background(), dto.CompareRequest{BeforeHTML: "<p>x</p>"})
	require.ErrorAs(t, err, &validationErrs)
}

func TestScoringServiceKeepsRequestOrder(t *testing.T) {
	svc := newTestService(scoring.ForceHeuristic)

	resp, err := svc.Score(context.Background(), dto.ScoreRequest{
		HTML:     "<html><h1>Buy now</h1></html>",
		Criteria: []string{"cta", "Clarity"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"cta", "clarity"}, resp.Criteria)
	require.Len(t, resp.PerCriterion, 2)
	require.Equal(t, "heuristic", resp.Mode)
	require.Equal(t, "Mock mode: heuristic scoring", resp.Notes)
}

func TestScoringServiceDefaultsToAllCriteria(t *testing.T) {
	svc := newTestService(scoring.PreferSemantic)

	resp, err := svc.Score(context.Background(), dto.ScoreRequest{HTML: "<html><h1>Buy now</h1></html>"})
	require.NoError(t, err)
	require.Equal(t, []string{"clarity", "credibility", "cta"}, resp.Criteria)
}

func TestScoringServicePropagatesEngineErrors(t *testing.T) {
	svc := newTestService(scoring.ForceHeuristic)

	_, err := svc.Score(context.Background(), dto.ScoreRequest{HTML: "<p>x</p>", Criteria: []string{"seo"}})
	require.True(t, errors.Is(err, scoring.ErrUnknownCriterion))
}

func TestScoringServiceCompare(t *testing.T) {
	svc := newTestService(scoring.ForceHeuristic)

	resp, err := svc.Compare(context.Background(), dto.CompareRequest{
		BeforeHTML: "<html></html>",
		AfterHTML:  "<html><h1>Get Started Free Today</h1><a href='#'>Sign Up</a></html>",
		Criteria:   []string{"cta"},
	})
	require.NoError(t, err)
	require.Equal(t, "improved", resp.Verdict)
	require.Equal(t, 95, resp.Deltas["cta"])
	require.Equal(t, 95, resp.OverallDelta)
	require.Equal(t, []string{"cta"}, resp.After.Criteria)
}

func TestScoringServiceStatusAndCriteria(t *testing.T) {
	mock := newTestService(scoring.ForceHeuristic)
	require.Equal(t, ScoringStatus{Mock: true}, mock.Status())

	live := newTestService(scoring.PreferSemantic)
	require.Equal(t, ScoringStatus{}, live.Status())

	criteria := live.Criteria()
	require.Len(t, criteria, 3)
	require.Equal(t, "clarity", criteria[0].Key)
	require.NotEmpty(t, criteria[0].Description)
}
