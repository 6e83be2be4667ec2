package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/service"
	"github.com/skilldesk/lms-api/internal/utils"
)

// PaymentHandler manages payment recording and history endpoints.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler builds a payment handler instance.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Post("/process", h.process)
	router.Get("/status/:courseId", h.status)
	router.Get("/history/:studentId", h.history)
}

// RegisterAdmin attaches the admin payments dashboard route.
func (h *PaymentHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.adminDashboard)
}

func (h *PaymentHandler) process(c *fiber.Ctx) error {
	var payload dto.PaymentProcessRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Apply(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "payment successful, course unlocked"
	if result.FreeCourse {
		message = "free course unlocked"
	}
	if result.Duplicate {
		message = "payment already recorded"
	}

	return utils.SendSuccess(c, message, result)
}

func (h *PaymentHandler) status(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := requireQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.service.Status(c.Context(), studentID, courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payment status retrieved", status)
}

func (h *PaymentHandler) history(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payments, err := h.service.HistoryByStudent(c.Context(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payment history retrieved", payments)
}

func (h *PaymentHandler) adminDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.AdminDashboard(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payments retrieved", dashboard)
}

func (h *PaymentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrEnrollFirst):
		return utils.SendError(c, fiber.StatusConflict, "please enroll first")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
