package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hireloop/hireloop-api/internal/dto"
	"github.com/hireloop/hireloop-api/internal/service"
	"github.com/hireloop/hireloop-api/internal/utils"
)

// InterviewHandler exposes the interview session lifecycle over HTTP.
type InterviewHandler struct {
	service service.InterviewService
	logger  zerolog.Logger
}

// NewInterviewHandler constructs an interview handler.
func NewInterviewHandler(service service.InterviewService, logger zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		logger:  logger.With().Str("component", "interview_handler").Logger(),
	}
}

// Register wires interview routes.
func (h *InterviewHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Post("/:id/turns", h.submitTurn)
	router.Post("/:id/complete", h.complete)
	router.Get("/:id/evaluation", h.evaluation)
	router.Post("/:id/abandon", h.abandon)
}

func (h *InterviewHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateSessionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.CreateSession(c.Context(), payload)
	if err != nil {
		return h.sendServiceError(c, err, "failed to create interview session")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "interview session created", response)
}

func (h *InterviewHandler) get(c *fiber.Ctx) error {
	sessionID, err := sessionIDFromParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	response, err := h.service.GetSession(c.Context(), sessionID)
	if err != nil {
		return h.sendServiceError(c, err, "failed to load interview session")
	}

	return utils.SendSuccess(c, "interview session retrieved", response)
}

func (h *InterviewHandler) submitTurn(c *fiber.Ctx) error {
	sessionID, err := sessionIDFromParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	var payload dto.SubmitTurnRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SubmitTurn(c.Context(), sessionID, payload)
	if err != nil {
		return h.sendServiceError(c, err, "failed to process interview turn")
	}

	return utils.SendSuccess(c, "turn processed", response)
}

func (h *InterviewHandler) complete(c *fiber.Ctx) error {
	sessionID, err := sessionIDFromParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	var payload dto.CompleteSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	response, err := h.service.CompleteSession(c.Context(), sessionID, payload.Force)
	if err != nil {
		return h.sendServiceError(c, err, "failed to complete interview session")
	}

	return utils.SendSuccess(c, "interview evaluation created", response)
}

func (h *InterviewHandler) evaluation(c *fiber.Ctx) error {
	sessionID, err := sessionIDFromParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	response, err := h.service.GetEvaluation(c.Context(), sessionID)
	if err != nil {
		return h.sendServiceError(c, err, "failed to load interview evaluation")
	}

	return utils.SendSuccess(c, "interview evaluation retrieved", response)
}

func (h *InterviewHandler) abandon(c *fiber.Ctx) error {
	sessionID, err := sessionIDFromParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	response, err := h.service.AbandonSession(c.Context(), sessionID)
	if err != nil {
		return h.sendServiceError(c, err, "failed to abandon interview session")
	}

	return utils.SendSuccess(c, "interview session abandoned", response)
}

func (h *InterviewHandler) sendServiceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "interview session not found")
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "interview question not found")
	case errors.Is(err, service.ErrConcurrentTurn):
		return utils.SendError(c, fiber.StatusConflict, "another turn is already being processed")
	case errors.Is(err, service.ErrSessionFinished):
		return utils.SendError(c, fiber.StatusConflict, "interview session already finished")
	case errors.Is(err, service.ErrEvaluationExists):
		return utils.SendError(c, fiber.StatusConflict, "evaluation already exists for this session")
	case errors.Is(err, service.ErrSessionNotCompleted):
		return utils.SendError(c, fiber.StatusConflict, "interview session is not completed yet")
	case errors.Is(err, service.ErrIncompleteSession):
		return utils.SendError(c, fiber.StatusConflict, "interview session has no answered turns")
	case errors.Is(err, service.ErrGenerationFailed),
		errors.Is(err, service.ErrTurnProcessingFailed),
		errors.Is(err, service.ErrAggregationFailed):
		requestLogger(h.logger, c).Error().Err(err).Str("route", c.Path()).Msg("agent pipeline failure")
		return utils.SendError(c, fiber.StatusBadGateway, "interview agent is unavailable")
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("route", c.Path()).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
