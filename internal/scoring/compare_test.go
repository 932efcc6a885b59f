package scoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cro-score-api/internal/scoring"
	"github.com/noah-isme/cro-score-api/internal/scoring/heuristic"
)

const (
	emptyPage = "<html></html>"
	ctaPage   = "<html><h1>Get Started Free Today</h1><a href='#'>Sign Up</a></html>"
)

func TestCompareMatchesIndependentScores(t *testing.T) {
	engine := scoring.NewEngine(heuristic.New())
	ctx := context.Background()

	compared, err := engine.Compare(ctx, scoring.CompareRequest{BeforeHTML: emptyPage, AfterHTML: ctaPage}, scoring.ForceHeuristic)
	require.NoError(t, err)

	before, err := engine.Score(ctx, scoring.Request{HTML: emptyPage}, scoring.ForceHeuristic)
	require.NoError(t, err)
	after, err := engine.Score(ctx, scoring.Request{HTML: ctaPage}, scoring.ForceHeuristic)
	require.NoError(t, err)

	require.Equal(t, before, compared.Before)
	require.Equal(t, after, compared.After)
	for _, key := range scoring.DefaultRegistry().Keys() {
		require.Equal(t, after.PerCriterion[key].Score-before.PerCriterion[key].Score, compared.Deltas[key], key)
	}
	require.Equal(t, after.OverallScore-before.OverallScore, compared.OverallDelta)
	require.Equal(t, scoring.VerdictImproved, compared.Verdict)
}

func TestCompareVerdicts(t *testing.T) {
	engine := scoring.NewEngine(heuristic.New())

	regressed, err := engine.Compare(context.Background(), scoring.CompareRequest{
		BeforeHTML: ctaPage,
		AfterHTML:  emptyPage,
		Criteria:   []string{"cta"},
	}, scoring.ForceHeuristic)
	require.NoError(t, err)
	require.Less(t, regressed.OverallDelta, 0)
	require.Equal(t, scoring.VerdictRegressed, regressed.Verdict)
	require.Len(t, regressed.Deltas, 1)

	unchanged, err := engine.Compare(context.Background(), scoring.CompareRequest{
		BeforeHTML: ctaPage,
		AfterHTML:  ctaPage,
	}, scoring.ForceHeuristic)
	require.NoError(t, err)
	require.Equal(t, 0, unchanged.OverallDelta)
	require.Equal(t, scoring.VerdictUnchanged, unchanged.Verdict)
}

func TestVerdictFollowsSign(t *testing.T) {
	require.Equal(t, scoring.VerdictImproved, scoring.VerdictFor(1))
	require.Equal(t, scoring.VerdictRegressed, scoring.VerdictFor(-1))
	require.Equal(t, scoring.VerdictUnchanged, scoring.VerdictFor(0))
}

func TestCompareFailsWhenEitherSideFails(t *testing.T) {
	semantic := &stubEvaluator{err: scoring.NewError(scoring.KindSchemaViolation, "bad output", nil)}
	engine := scoring.NewEngine(heuristic.New(), scoring.WithSemantic(semantic))

	result, err := engine.Compare(context.Background(), scoring.CompareRequest{BeforeHTML: emptyPage, AfterHTML: ctaPage}, scoring.PreferSemantic)
	require.True(t, errors.Is(err, scoring.ErrSchemaViolation))
	require.Empty(t, result.Deltas)
}

// splitEvaluator fails fast for failHTML and blocks on every other page
// until its context is cancelled.
type splitEvaluator struct {
	failHTML string
	released chan struct{}
}

func (s *splitEvaluator) Evaluate(ctx context.Context, page scoring.Page, _ []scoring.Criterion) (scoring.Result, error) {
	if page.HTML == s.failHTML {
		return scoring.Result{}, scoring.NewError(scoring.KindSchemaViolation, "bad output", nil)
	}
	<-ctx.Done()
	close(s.released)
	return scoring.Result{}, scoring.NewError(scoring.KindUpstreamUnavailable, "interrupted", ctx.Err())
}

func TestCompareCancelsSiblingOnFailure(t *testing.T) {
	semantic := &splitEvaluator{failHTML: emptyPage, released: make(chan struct{})}
	engine := scoring.NewEngine(heuristic.New(), scoring.WithSemantic(semantic))

	type outcome struct {
		result scoring.CompareResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := engine.Compare(context.Background(), scoring.CompareRequest{BeforeHTML: emptyPage, AfterHTML: ctaPage}, scoring.PreferSemantic)
		done <- outcome{result: result, err: err}
	}()

	select {
	case got := <-done:
		require.True(t, errors.Is(got.err, scoring.ErrSchemaViolation), got.err)
		require.Empty(t, got.result.Deltas)
	case <-time.After(3 * time.Second):
		t.Fatal("compare did not return after one side failed")
	}

	select {
	case <-semantic.released:
	case <-time.After(time.Second):
		t.Fatal("blocked side was not cancelled")
	}
}

func TestCompareFallsBackPerSide(t *testing.T) {
	semantic := &stubEvaluator{err: scoring.NewError(scoring.KindUpstreamUnavailable, "down", nil)}
	engine := scoring.NewEngine(heuristic.New(), scoring.WithSemantic(semantic))

	result, err := engine.Compare(context.Background(), scoring.CompareRequest{BeforeHTML: emptyPage, AfterHTML: ctaPage}, scoring.PreferSemantic)
	require.NoError(t, err)
	require.Equal(t, scoring.ModeHeuristic, result.Before.Mode)
	require.Equal(t, scoring.ModeHeuristic, result.After.Mode)
	require.Equal(t, int32(2), semantic.calls.Load())
}

func TestCompareRejectsUnknownCriterion(t *testing.T) {
	engine := scoring.NewEngine(heuristic.New())

	_, err := engine.Compare(context.Background(), scoring.CompareRequest{
		BeforeHTML: emptyPage,
		AfterHTML:  ctaPage,
		Criteria:   []string{"seo"},
	}, scoring.ForceHeuristic)
	require.True(t, errors.Is(err, scoring.ErrUnknownCriterion))
}

func TestCompareRequiresBothDocuments(t *testing.T) {
	engine := scoring.NewEngine(heuristic.New())

	_, err := engine.Compare(context.Background(), scoring.CompareRequest{BeforeHTML: emptyPage}, scoring.ForceHeuristic)
	require.Equal(t, scoring.KindInvalidRequest, scoring.KindOf(err))
}

func TestDiffUsesRequestedKeys(t *testing.T) {
	before := scoring.NewResult(scoring.ModeHeuristic, []scoring.CriterionScore{{Key: "cta", Score: 40, Rationale: "x"}}, "")
	after := scoring.NewResult(scoring.ModeSemantic, []scoring.CriterionScore{{Key: "cta", Score: 65, Rationale: "y"}}, "")

	diff := scoring.Diff(before, after, []string{"cta"})
	require.Equal(t, map[string]int{"cta": 25}, diff.Deltas)
	require.Equal(t, 25, diff.OverallDelta)
	require.Equal(t, scoring.VerdictImproved, diff.Verdict)
}
