package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cro",
		Subsystem: "ai",
		Name:      "completion_duration_seconds",
		Help:      "Duration of AI completion requests",
	}, []string{"provider", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cro",
		Subsystem: "ai",
		Name:      "completion_failures_total",
		Help:      "Number of AI completion failures",
	}, []string{"provider", "model"})

	aiTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cro",
		Subsystem: "ai",
		Name:      "tokens_total",
		Help:      "Tokens consumed by AI completions",
	}, []string{"provider", "model", "direction"})
)

func recordUsage(provider, model string, resp Response) {
	aiTokens.WithLabelValues(provider, model, "input").Add(float64(resp.InputTokens))
	aiTokens.WithLabelValues(provider, model, "output").Add(float64(resp.OutputTokens))
}
