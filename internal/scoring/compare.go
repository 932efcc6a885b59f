package scoring

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Compare scores the before and after documents concurrently with identical
// criteria and mode preference. A failure on either side fails the comparison
// and cancels the other side.
func (e *Engine) Compare(ctx context.Context, req CompareRequest, pref ModePreference) (CompareResult, error) {
	if err := checkContext(ctx); err != nil {
		return CompareResult{}, err
	}
	if req.BeforeHTML == "" {
		return CompareResult{}, NewError(KindInvalidRequest, "before_html is required", nil)
	}
	if req.AfterHTML == "" {
		return CompareResult{}, NewError(KindInvalidRequest, "after_html is required", nil)
	}

	criteria, err := e.registry.Resolve(req.Criteria)
	if err != nil {
		return CompareResult{}, err
	}
	keys := make([]string, len(criteria))
	for i, c := range criteria {
		keys[i] = c.Key
	}

	var before, after Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		before, err = e.Score(gctx, Request{HTML: req.BeforeHTML, URL: req.URL, Criteria: keys}, pref)
		return err
	})
	g.Go(func() error {
		var err error
		after, err = e.Score(gctx, Request{HTML: req.AfterHTML, URL: req.URL, Criteria: keys}, pref)
		return err
	})
	if err := g.Wait(); err != nil {
		return CompareResult{}, err
	}

	return Diff(before, after, keys), nil
}

// Diff derives deltas and the verdict from two independent results.
func Diff(before, after Result, keys []string) CompareResult {
	deltas := make(map[string]int, len(keys))
	for _, key := range keys {
		deltas[key] = after.PerCriterion[key].Score - before.PerCriterion[key].Score
	}
	overall := after.OverallScore - before.OverallScore

	return CompareResult{
		Before:       before,
		After:        after,
		Deltas:       deltas,
		OverallDelta: overall,
		Verdict:      VerdictFor(overall),
	}
}
