package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cro-score-api/internal/dto"
	"github.com/noah-isme/cro-score-api/internal/observability"
	"github.com/noah-isme/cro-score-api/internal/scoring"
	"github.com/noah-isme/cro-score-api/internal/service"
	"github.com/noah-isme/cro-score-api/internal/utils"
)

// ScoreHandler exposes the scoring and comparison endpoints.
type ScoreHandler struct {
	service     service.ScoringService
	uploadLimit int64
	logger      zerolog.Logger
}

// NewScoreHandler builds a score handler instance.
func NewScoreHandler(service service.ScoringService, uploadLimit int64, logger zerolog.Logger) *ScoreHandler {
	return &ScoreHandler{
		service:     service,
		uploadLimit: uploadLimit,
		logger:      logger.With().Str("component", "score_handler").Logger(),
	}
}

// Register wires the routes below /api/v1.
func (h *ScoreHandler) Register(router fiber.Router) {
	router.Get("/criteria", h.listCriteria)
	router.Post("/score", h.score)
	router.Post("/score/upload", h.scoreUpload)
	router.Post("/compare", h.compare)
}

func (h *ScoreHandler) listCriteria(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "criteria retrieved", h.service.Criteria())
}

func (h *ScoreHandler) score(c *fiber.Ctx) error {
	var payload dto.ScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, string(scoring.KindInvalidRequest), "invalid request body")
	}

	result, err := h.service.Score(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.SetMode(c, result.Mode)
	return utils.SendSuccess(c, "page scored", result)
}

func (h *ScoreHandler) scoreUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, string(scoring.KindInvalidRequest), "file is required")
	}

	html, err := service.ReadHTMLUpload(file, h.uploadLimit)
	if err != nil {
		return h.handleError(c, err)
	}

	payload := dto.ScoreRequest{
		HTML:     html,
		URL:      c.FormValue("url"),
		Criteria: splitAndTrim(c.FormValue("criteria")),
	}

	result, err := h.service.Score(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.SetMode(c, result.Mode)
	return utils.SendSuccess(c, "page scored", result)
}

func (h *ScoreHandler) compare(c *fiber.Ctx) error {
	var payload dto.CompareRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, string(scoring.KindInvalidRequest), "invalid request body")
	}

	result, err := h.service.Compare(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	observability.SetMode(c, result.Before.Mode, result.After.Mode)
	return utils.SendSuccess(c, "pages compared", result)
}

func (h *ScoreHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var scoringErr *scoring.Error

	switch {
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, string(scoring.KindInvalidRequest), validationErrors.Error())
	case errors.Is(err, service.ErrUploadFileRequired), errors.Is(err, service.ErrUploadEmpty):
		return utils.SendErrorWithCode(c, fiber.StatusBadRequest, string(scoring.KindInvalidRequest), err.Error())
	case errors.Is(err, service.ErrUploadUnsupportedType):
		return utils.SendErrorWithCode(c, fiber.StatusUnsupportedMediaType, string(scoring.KindInvalidRequest), err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendErrorWithCode(c, fiber.StatusRequestEntityTooLarge, string(scoring.KindInvalidRequest), err.Error())
	case errors.As(err, &scoringErr):
		return h.handleScoringError(c, scoringErr)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func (h *ScoreHandler) handleScoringError(c *fiber.Ctx, err *scoring.Error) error {
	status := fiber.StatusInternalServerError
	switch err.Kind {
	case scoring.KindInvalidRequest, scoring.KindUnknownCriterion:
		status = fiber.StatusBadRequest
	case scoring.KindSchemaViolation:
		status = fiber.StatusBadGateway
	case scoring.KindUpstreamUnavailable:
		status = fiber.StatusServiceUnavailable
	case scoring.KindCancelled:
		status = fiber.StatusRequestTimeout
	}

	if status >= fiber.StatusInternalServerError {
		requestLogger(h.logger, c).Error().Err(err).Str("kind", string(err.Kind)).Msg("scoring failed")
	}

	return utils.SendErrorWithCode(c, status, string(err.Kind), err.Error())
}
