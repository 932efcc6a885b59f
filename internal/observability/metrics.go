package observability

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// ModeNone labels requests that produced no score (health, criteria, errors).
const ModeNone = "none"

// ModeMixed labels comparisons whose two sides were scored by different evaluators.
const ModeMixed = "mixed"

const modeLocal = "scoring_mode"

var (
	registerOnce   sync.Once
	requestsTotal  *prometheus.CounterVec
	latencySeconds *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the HTTP collectors. Requests and latency are
// split by the evaluator mode that answered, since semantic scoring waits on
// a language model and heuristic scoring does not.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cro",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests served, by route, status and evaluator mode.",
		}, []string{"method", "route", "status", "mode"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cro",
			Subsystem: "http",
			Name:      "latency_seconds",
			Help:      "API request latency, by route and evaluator mode.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route", "mode"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cro",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses, by route and status.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal)
	})
}

// SetMode records which evaluator produced the response for this request.
// Passing several modes (both sides of a comparison) collapses them to one
// label, or ModeMixed when they differ.
func SetMode(c *fiber.Ctx, modes ...string) {
	if len(modes) == 0 {
		return
	}
	mode := modes[0]
	for _, m := range modes[1:] {
		if m != mode {
			mode = ModeMixed
			break
		}
	}
	c.Locals(modeLocal, mode)
}

// Mode returns the evaluator mode recorded for the request, or ModeNone.
func Mode(c *fiber.Ctx) string {
	if mode, ok := c.Locals(modeLocal).(string); ok && mode != "" {
		return mode
	}
	return ModeNone
}

// ObserveRequest records one finished API request.
func ObserveRequest(method, route string, status int, mode string, seconds float64) {
	RegisterMetrics()

	statusLabel := strconv.Itoa(status)
	requestsTotal.WithLabelValues(method, route, statusLabel, mode).Inc()
	latencySeconds.WithLabelValues(method, route, mode).Observe(seconds)
	if status >= fiber.StatusBadRequest {
		errorsTotal.WithLabelValues(method, route, statusLabel).Inc()
	}
}
