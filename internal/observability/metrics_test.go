package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func modeFor(t *testing.T, modes ...string) string {
	t.Helper()

	var got string
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		SetMode(c, modes...)
		got = Mode(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	return got
}

func TestSetModeCollapsesComparisonSides(t *testing.T) {
	require.Equal(t, ModeNone, modeFor(t))
	require.Equal(t, "semantic", modeFor(t, "semantic"))
	require.Equal(t, "heuristic", modeFor(t, "heuristic", "heuristic"))
	require.Equal(t, ModeMixed, modeFor(t, "semantic", "heuristic"))
}

func TestObserveRequestLabelsMode(t *testing.T) {
	RegisterMetrics()
	semantic := requestsTotal.WithLabelValues("POST", "/api/v1/score", "200", "semantic")
	heuristic := requestsTotal.WithLabelValues("POST", "/api/v1/score", "200", "heuristic")
	failures := errorsTotal.WithLabelValues("POST", "/api/v1/score", "502")

	beforeSemantic := testutil.ToFloat64(semantic)
	beforeHeuristic := testutil.ToFloat64(heuristic)
	beforeFailures := testutil.ToFloat64(failures)

	ObserveRequest("POST", "/api/v1/score", 200, "semantic", 1.2)
	ObserveRequest("POST", "/api/v1/score", 502, ModeNone, 0.8)

	require.Equal(t, beforeSemantic+1, testutil.ToFloat64(semantic))
	require.Equal(t, beforeHeuristic, testutil.ToFloat64(heuristic))
	require.Equal(t, beforeFailures+1, testutil.ToFloat64(failures))
}

func TestMetricsHandlerExposesHTTPCollectors(t *testing.T) {
	ObserveRequest("GET", "/api/v1/criteria", 200, ModeNone, 0.001)

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `cro_http_requests_total{method="GET",mode="none",route="/api/v1/criteria",status="200"}`)
}
