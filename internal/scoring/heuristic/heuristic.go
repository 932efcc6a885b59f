// Package heuristic implements the deterministic, rule-based evaluator. It
// inspects only the supplied markup and never performs I/O.
package heuristic

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/noah-isme/cro-score-api/internal/scoring"
)

const neutralScore = 50

// Evaluator scores pages from DOM and text signals.
type Evaluator struct {
	rules map[string]rule
}

// New returns an evaluator with rules for the built-in criteria.
func New() *Evaluator {
	return &Evaluator{
		rules: map[string]rule{
			"clarity":     {label: "clarity", score: scoreClarity},
			"credibility": {label: "credibility", score: scoreCredibility},
			"cta":         {label: "call-to-action", score: scoreCTA},
		},
	}
}

// Evaluate never fails; an empty page produces degenerate low scores.
func (e *Evaluator) Evaluate(_ context.Context, page scoring.Page, criteria []scoring.Criterion) (scoring.Result, error) {
	doc := parseDocument(page.HTML)

	scores := make([]scoring.CriterionScore, 0, len(criteria))
	for _, c := range criteria {
		r, ok := e.rules[c.Key]
		if !ok {
			scores = append(scores, scoring.CriterionScore{
				Key:         c.Key,
				Score:       neutralScore,
				Rationale:   fmt.Sprintf("No heuristic rules exist for %q; a neutral score was assigned.", c.Key),
				Suggestions: []string{},
			})
			continue
		}

		o := r.score(doc)
		suggestions := o.suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		scores = append(scores, scoring.CriterionScore{
			Key:         c.Key,
			Score:       scoring.ClampScore(o.points),
			Rationale:   rationale(doc, r.label, o),
			Suggestions: suggestions,
		})
	}

	return scoring.NewResult(scoring.ModeHeuristic, scores, ""), nil
}

func rationale(doc *document, label string, o outcome) string {
	if doc.empty() {
		msg := fmt.Sprintf("No visible content found, so the page gives no %s signals.", label)
		if len(o.fired) > 0 {
			msg += " Only " + strings.Join(o.fired, "; ") + "."
		}
		return msg
	}
	if len(o.fired) == 0 {
		return fmt.Sprintf("No %s signals detected.", label)
	}
	return capitalize(strings.Join(o.fired, "; ")) + "."
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
