package scoring

import (
	"context"
	"math"
)

// Mode identifies which evaluator produced a result.
type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeSemantic  Mode = "semantic"
)

// ModePreference controls whether the semantic evaluator may be attempted.
type ModePreference int

const (
	// PreferSemantic tries the semantic evaluator and falls back to heuristics
	// when the upstream is unavailable.
	PreferSemantic ModePreference = iota
	// ForceHeuristic never calls the semantic evaluator.
	ForceHeuristic
)

// Verdict summarises a comparison by the sign of the overall delta.
type Verdict string

const (
	VerdictImproved  Verdict = "improved"
	VerdictRegressed Verdict = "regressed"
	VerdictUnchanged Verdict = "unchanged"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Criterion is a named CRO dimension.
type Criterion struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Page is the document under evaluation. URL is a context label and is
// never dereferenced.
type Page struct {
	HTML string
	URL  string
}

// Request asks for a page to be scored against the given criteria keys.
// An empty Criteria slice selects every registered criterion.
type Request struct {
	HTML     string
	URL      string
	Criteria []string
}

// CompareRequest asks for a before/after evaluation of the same page.
type CompareRequest struct {
	BeforeHTML string
	AfterHTML  string
	URL        string
	Criteria   []string
}

// CriterionScore is the outcome for one criterion.
type CriterionScore struct {
	Key         string   `json:"key"`
	Score       int      `json:"score"`
	Rationale   string   `json:"rationale"`
	Suggestions []string `json:"suggestions"`
}

// Result is the canonical output of every evaluator.
type Result struct {
	OverallScore int                       `json:"overall_score"`
	PerCriterion map[string]CriterionScore `json:"per_criterion"`
	Mode         Mode                      `json:"mode"`
	Notes        string                    `json:"notes,omitempty"`
}

// CompareResult holds two independent results and their differences.
type CompareResult struct {
	Before       Result         `json:"before"`
	After        Result         `json:"after"`
	Deltas       map[string]int `json:"deltas"`
	OverallDelta int            `json:"overall_delta"`
	Verdict      Verdict        `json:"verdict"`
}

// Evaluator scores a page against already resolved criteria.
type Evaluator interface {
	Evaluate(ctx context.Context, page Page, criteria []Criterion) (Result, error)
}

// ClampScore forces a score into the closed [MinScore, MaxScore] range.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Overall returns the rounded arithmetic mean of the per-criterion scores.
func Overall(scores map[string]CriterionScore) int {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s.Score
	}
	return ClampScore(int(math.Round(float64(total) / float64(len(scores)))))
}

// NewResult assembles a Result from ordered scores and derives the overall score.
func NewResult(mode Mode, scores []CriterionScore, notes string) Result {
	per := make(map[string]CriterionScore, len(scores))
	for _, s := range scores {
		s.Score = ClampScore(s.Score)
		if s.Suggestions == nil {
			s.Suggestions = []string{}
		}
		per[s.Key] = s
	}

	return Result{
		OverallScore: Overall(per),
		PerCriterion: per,
		Mode:         mode,
		Notes:        notes,
	}
}

// VerdictFor maps an overall delta to its verdict.
func VerdictFor(delta int) Verdict {
	switch {
	case delta > 0:
		return VerdictImproved
	case delta < 0:
		return VerdictRegressed
	default:
		return VerdictUnchanged
	}
}
