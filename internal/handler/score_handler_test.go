package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cro-score-api/internal/config"
	"github.com/noah-isme/cro-score-api/internal/dto"
	"github.com/noah-isme/cro-score-api/internal/handler"
	"github.com/noah-isme/cro-score-api/internal/middleware"
	"github.com/noah-isme/cro-score-api/internal/router"
	"github.com/noah-isme/cro-score-api/internal/scoring"
	"github.com/noah-isme/cro-score-api/internal/scoring/heuristic"
	"github.com/noah-isme/cro-score-api/internal/service"
)

const ctaPage = "<html><h1>Get Started Free Today</h1><a href='#'>Sign Up</a></html>"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type stubScoringService struct {
	err error
}

func (s stubScoringService) Score(context.Context, dto.ScoreRequest) (dto.ScoreResponse, error) {
	return dto.ScoreResponse{}, s.err
}

func (s stubScoringService) Compare(context.Context, dto.CompareRequest) (dto.CompareResponse, error) {
	return dto.CompareResponse{}, s.err
}

func (s stubScoringService) Criteria() []dto.CriterionResponse {
	return nil
}

func (s stubScoringService) Status() service.ScoringStatus {
	return service.ScoringStatus{}
}

func newTestApp(t *testing.T, svc service.ScoringService, uploadLimit int64) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	cfg := config.Config{AppName: "CRO Scoring API", AppEnv: "test", UseMock: true, AIProvider: config.ProviderOpenAI}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ScoreHandler: handler.NewScoreHandler(svc, uploadLimit, logger),
		Status:       svc,
	})
	return app
}

func heuristicService() service.ScoringService {
	engine := scoring.NewEngine(heuristic.New())
	return service.NewScoringService(engine, scoring.ForceHeuristic, validator.New(), zerolog.Nop())
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestScoreEndpoint(t *testing.T) {
	app := newTestApp(t, heuristicService(), 0)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/score", dto.ScoreRequest{
		HTML:     ctaPage,
		URL:      "https://example.com",
		Criteria: []string{"cta", "clarity"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
	require.Equal(t, "CRO Scoring API", resp.Header.Get("X-Application"))

	var result dto.ScoreResponse
	require.NoError(t, json.Unmarshal(body.Data, &result))
	require.Equal(t, "heuristic", result.Mode)
	require.Equal(t, []string{"cta", "clarity"}, result.Criteria)
	require.Equal(t, 95, result.PerCriterion["cta"].Score)
}

func TestScoreEndpointContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "score_response.schema.json"))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	app := newTestApp(t, heuristicService(), 0)
	for _, markup := range []string{ctaPage, "<html></html>"} {
		payload, err := json.Marshal(dto.ScoreRequest{HTML: markup})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/score", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var document any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&document))
		resp.Body.Close()
		require.NoError(t, schema.Validate(document))
	}
}

func TestScoreEndpointRejectsBadInput(t *testing.T) {
	app := newTestApp(t, heuristicService(), 0)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/score", dto.ScoreRequest{})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_request", body.Error)

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/score", dto.ScoreRequest{HTML: ctaPage, Criteria: []string{"seo"}})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "unknown_criterion", body.Error)
	require.False(t, body.Success)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, body = do(t, app, req)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_request", body.Error)
}

func TestScoreEndpointMapsScoringErrors(t *testing.T) {
	cases := map[scoring.Kind]int{
		scoring.KindSchemaViolation:     fiber.StatusBadGateway,
		scoring.KindUpstreamUnavailable: fiber.StatusServiceUnavailable,
		scoring.KindCancelled:           fiber.StatusRequestTimeout,
		scoring.KindInvalidRequest:      fiber.StatusBadRequest,
	}

	for kind, status := range cases {
		t.Run(string(kind), func(t *testing.T) {
			app := newTestApp(t, stubScoringService{err: scoring.NewError(kind, "boom", nil)}, 0)

			resp, body := doJSON(t, app, http.MethodPost, "/api/v1/score", dto.ScoreRequest{HTML: ctaPage})
			require.Equal(t, status, resp.StatusCode)
			require.Equal(t, string(kind), body.Error)
			require.Equal(t, "boom", body.Message)
		})
	}

	app := newTestApp(t, stubScoringService{err: io.ErrUnexpectedEOF}, 0)
	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/compare", dto.CompareRequest{BeforeHTML: "a", AfterHTML: "b"})
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "internal server error", body.Message)
}

func TestCompareEndpoint(t *testing.T) {
	app := newTestApp(t, heuristicService(), 0)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/compare", dto.CompareRequest{
		BeforeHTML: "<html></html>",
		AfterHTML:  ctaPage,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result dto.CompareResponse
	require.NoError(t, json.Unmarshal(body.Data, &result))
	require.Equal(t, "improved", result.Verdict)
	require.Equal(t, result.After.OverallScore-result.Before.OverallScore, result.OverallDelta)
	require.Len(t, result.Deltas, 3)
	for key, delta := range result.Deltas {
		require.Equal(t, result.After.PerCriterion[key].Score-result.Before.PerCriterion[key].Score, delta, key)
	}
}

func TestCriteriaEndpoint(t *testing.T) {
	app := newTestApp(t, heuristicService(), 0)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/criteria", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var criteria []dto.CriterionResponse
	require.NoError(t, json.Unmarshal(body.Data, &criteria))
	require.Len(t, criteria, 3)
	require.Equal(t, "clarity", criteria[0].Key)
	require.Equal(t, "cta", criteria[2].Key)
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestScoreUploadEndpoint(t *testing.T) {
	app := newTestApp(t, heuristicService(), 1024)

	resp, body := do(t, app, uploadRequest(t, "landing.html", []byte(ctaPage), map[string]string{"criteria": "cta, clarity"}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result dto.ScoreResponse
	require.NoError(t, json.Unmarshal(body.Data, &result))
	require.Equal(t, []string{"cta", "clarity"}, result.Criteria)

	resp, body = do(t, app, uploadRequest(t, "logo.png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, nil))
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
	require.Equal(t, "invalid_request", body.Error)

	resp, _ = do(t, app, uploadRequest(t, "big.html", bytes.Repeat([]byte("<p>a</p>"), 200), nil))
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = do(t, app, uploadRequest(t, "", nil, map[string]string{"url": "https://example.com"}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
