package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/service"
	"github.com/skilldesk/lms-api/internal/utils"
)

// AttemptHandler manages exam attempt endpoints.
type AttemptHandler struct {
	service service.AttemptService
	logger  zerolog.Logger
}

// NewAttemptHandler builds an attempt handler instance.
func NewAttemptHandler(service service.AttemptService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register attaches the attempt routes to the provided router group.
func (h *AttemptHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/user/:userId", h.listByUser)
}

// RegisterExamStatus attaches the eligibility route under the exams group.
func (h *AttemptHandler) RegisterExamStatus(router fiber.Router) {
	router.Get("/:examId/status/:studentId", h.status)
}

// RegisterAdmin attaches the per-exam attempt listing.
func (h *AttemptHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/exam/:examId", h.listByExam)
}

func (h *AttemptHandler) status(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	eligibility, err := h.service.CheckEligibility(c.Context(), studentID, examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam status retrieved", eligibility)
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitAttemptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SubmitAttempt(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	message := fmt.Sprintf("exam submitted, %d attempt(s) remaining", result.AttemptsLeft)
	if result.Passed {
		message = "congratulations, you passed the exam"
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, result)
}

func (h *AttemptHandler) listByUser(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempts, err := h.service.ListByUser(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempts retrieved", attempts)
}

func (h *AttemptHandler) listByExam(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempts, err := h.service.ListByExam(c.Context(), examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempts retrieved", attempts)
}

func (h *AttemptHandler) handleError(c *fiber.Ctx, err error) error {
	var rejection *service.EligibilityError
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.As(err, &rejection):
		detail := fiber.Map{
			"reason":        rejection.Reason,
			"attempts_left": rejection.AttemptsLeft,
		}
		if rejection.Cooldown != nil {
			detail["cooldown_info"] = rejection.Cooldown
		}
		return utils.SendErrorWithData(c, fiber.StatusConflict, rejection.Message, detail)
	case errors.Is(err, service.ErrConflict):
		return utils.SendError(c, fiber.StatusConflict, "concurrent submission detected, please retry")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
