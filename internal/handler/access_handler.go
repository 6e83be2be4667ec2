package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/skilldesk/lms-api/internal/service"
	"github.com/skilldesk/lms-api/internal/utils"
)

// AccessHandler exposes course access resolution and the filtered lecture
// listing. The access decision is always computed server-side.
type AccessHandler struct {
	service service.AccessService
	logger  zerolog.Logger
}

// NewAccessHandler builds an access handler instance.
func NewAccessHandler(service service.AccessService, logger zerolog.Logger) *AccessHandler {
	return &AccessHandler{
		service: service,
		logger:  logger.With().Str("component", "access_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AccessHandler) Register(router fiber.Router) {
	router.Get("/:id/access", h.resolveAccess)
	router.Get("/:id/lectures", h.listLectures)
}

func (h *AccessHandler) resolveAccess(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := requireQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	access, err := h.service.ResolveAccess(c.Context(), studentID, courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "access resolved", access)
}

func (h *AccessHandler) listLectures(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID, err := requireQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	lectures, err := h.service.ListLectures(c.Context(), studentID, courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "showing free preview lectures only"
	if lectures.HasAccess {
		message = "full access granted"
	}

	return utils.SendSuccess(c, message, lectures)
}

func (h *AccessHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
