package dto

import "github.com/noah-isme/cro-score-api/internal/scoring"

// ScoreRequest is the payload for scoring a single landing page.
type ScoreRequest struct {
	HTML     string   `json:"html" validate:"required"`
	URL      string   `json:"url" validate:"omitempty,max=2048"`
	Criteria []string `json:"criteria" validate:"omitempty,max=32,dive,required,max=64"`
}

// CompareRequest is the payload for a before/after evaluation.
type CompareRequest struct {
	BeforeHTML string   `json:"before_html" validate:"required"`
	AfterHTML  string   `json:"after_html" validate:"required"`
	URL        string   `json:"url" validate:"omitempty,max=2048"`
	Criteria   []string `json:"criteria" validate:"omitempty,max=32,dive,required,max=64"`
}

// CriterionResponse describes one registered criterion.
type CriterionResponse struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// CriterionScoreResponse is the score for one criterion.
type CriterionScoreResponse struct {
	Score       int      `json:"score"`
	Rationale   string   `json:"rationale"`
	Suggestions []string `json:"suggestions"`
}

// ScoreResponse is the canonical score result returned to API consumers.
// Criteria lists the evaluated keys in request order.
type ScoreResponse struct {
	OverallScore int                               `json:"overall_score"`
	PerCriterion map[string]CriterionScoreResponse `json:"per_criterion"`
	Criteria     []string                          `json:"criteria"`
	Mode         string                            `json:"mode"`
	Notes        string                            `json:"notes,omitempty"`
}

// CompareResponse carries both results and their deltas.
type CompareResponse struct {
	Before       ScoreResponse  `json:"before"`
	After        ScoreResponse  `json:"after"`
	Deltas       map[string]int `json:"deltas"`
	OverallDelta int            `json:"overall_delta"`
	Verdict      string         `json:"verdict"`
}

// NewCriterionResponses maps registry entries to DTOs.
func NewCriterionResponses(criteria []scoring.Criterion) []CriterionResponse {
	items := make([]CriterionResponse, 0, len(criteria))
	for _, c := range criteria {
		items = append(items, CriterionResponse{Key: c.Key, Description: c.Description})
	}
	return items
}

// NewScoreResponse builds a response DTO from an engine result.
func NewScoreResponse(result scoring.Result, order []string) ScoreResponse {
	per := make(map[string]CriterionScoreResponse, len(result.PerCriterion))
	for key, score := range result.PerCriterion {
		suggestions := score.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		per[key] = CriterionScoreResponse{
			Score:       score.Score,
			Rationale:   score.Rationale,
			Suggestions: suggestions,
		}
	}

	criteria := make([]string, 0, len(order))
	for _, key := range order {
		if _, ok := per[key]; ok {
			criteria = append(criteria, key)
		}
	}

	return ScoreResponse{
		OverallScore: result.OverallScore,
		PerCriterion: per,
		Criteria:     criteria,
		Mode:         string(result.Mode),
		Notes:        result.Notes,
	}
}

// NewCompareResponse builds a response DTO from a comparison.
func NewCompareResponse(result scoring.CompareResult, order []string) CompareResponse {
	return CompareResponse{
		Before:       NewScoreResponse(result.Before, order),
		After:        NewScoreResponse(result.After, order),
		Deltas:       result.Deltas,
		OverallDelta: result.OverallDelta,
		Verdict:      string(result.Verdict),
	}
}
